package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/martinsuchenak/rackseed/internal/catalog"
	"github.com/martinsuchenak/rackseed/internal/iface"
	"github.com/martinsuchenak/rackseed/internal/inventory"
	"github.com/martinsuchenak/rackseed/internal/ipam"
	"github.com/martinsuchenak/rackseed/internal/lifecycle"
	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/plan"
	"github.com/martinsuchenak/rackseed/internal/storage"
	"github.com/martinsuchenak/rackseed/internal/topology"
)

// Options configures a generation run
type Options struct {
	// Clear removes previously generated records before generating
	Clear bool
	// Marker tags created rows; defaults to lifecycle.DefaultMarker
	Marker string
	// Plan defaults to plan.Default()
	Plan *plan.Plan
	// Seed of the random source; 0 seeds from the clock
	Seed int64
	// StrictCapacity fails the run when a rack runs out of units, counting
	// only the devices placed by this run
	StrictCapacity bool
	AddressRetries int
	// Progress receives one line per phase
	Progress func(msg string)
}

// Result summarises a run
type Result struct {
	Seed           int64 `json:"seed"`
	Cleared        int64 `json:"cleared"`
	Devices        int   `json:"devices"`
	CreatedDevices int   `json:"created_devices"`
	Interfaces     int   `json:"interfaces"`
	Addresses      int   `json:"addresses"`
}

func (r *Result) String() string {
	return fmt.Sprintf("%d devices (%d created, %d interfaces, %d addresses)",
		r.Devices, r.CreatedDevices, r.Interfaces, r.Addresses)
}

// NewRand returns the random source for seed, picking a seed from the clock
// when it is 0. The seed actually used is returned with it.
func NewRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)), seed
}

// Run generates the inventory. With Clear the clear pass runs first in its
// own unit of work; generation always runs in a single unit of work that is
// rolled back entirely on any error.
func Run(ctx context.Context, store storage.Store, opts Options) (*Result, error) {
	if opts.Marker == "" {
		opts.Marker = lifecycle.DefaultMarker
	}
	if opts.Plan == nil {
		opts.Plan = plan.Default()
	}
	if opts.Progress == nil {
		opts.Progress = func(string) {}
	}
	if err := opts.Plan.Validate(); err != nil {
		return nil, err
	}

	rng, seed := NewRand(opts.Seed)
	result := &Result{Seed: seed}

	if opts.Clear {
		report, err := lifecycle.Clear(ctx, store, opts.Marker)
		if err != nil {
			return nil, fmt.Errorf("clearing: %w", err)
		}
		result.Cleared = report.Total()
		opts.Progress(fmt.Sprintf("cleared %d generated records", result.Cleared))
	}

	log.Info("Generating inventory", "seed", seed, "marker", opts.Marker, "devices", opts.Plan.TotalDevices())

	g := &run{opts: opts, rng: rng, result: result}
	if err := store.WithTx(ctx, func(tx storage.Tx) error {
		return g.generate(ctx, tx)
	}); err != nil {
		return nil, err
	}

	opts.Progress(fmt.Sprintf("generated %d devices", result.Devices))
	log.Info("Inventory generated", "devices", result.Devices, "created", result.CreatedDevices,
		"interfaces", result.Interfaces, "addresses", result.Addresses)
	return result, nil
}

// run carries one generation through its phases
type run struct {
	opts   Options
	rng    *rand.Rand
	result *Result
}

func (g *run) phase(msg string) {
	g.opts.Progress(msg)
	log.Debug("Phase", "name", msg)
}

func (g *run) generate(ctx context.Context, tx storage.Tx) error {
	p, marker := g.opts.Plan, g.opts.Marker
	cat := &catalog.Catalog{}
	topo := &topology.Topology{}
	var err error

	g.phase("creating tenants...")
	if cat.TenantGroup, cat.Tenants, err = catalog.BuildTenants(ctx, tx, p, marker); err != nil {
		return fmt.Errorf("building tenants: %w", err)
	}

	g.phase("creating manufacturers...")
	if cat.Manufacturers, err = catalog.BuildManufacturers(ctx, tx, p, marker); err != nil {
		return fmt.Errorf("building manufacturers: %w", err)
	}

	g.phase("creating device types...")
	if cat.DeviceTypes, err = catalog.BuildDeviceTypes(ctx, tx, p, cat.Manufacturers, marker); err != nil {
		return fmt.Errorf("building device types: %w", err)
	}

	g.phase("creating device roles...")
	if cat.Roles, err = catalog.BuildRoles(ctx, tx, p, marker); err != nil {
		return fmt.Errorf("building device roles: %w", err)
	}

	g.phase("creating site...")
	if topo.Site, err = topology.BuildSite(ctx, tx, p, marker); err != nil {
		return fmt.Errorf("building site: %w", err)
	}

	g.phase("creating locations...")
	if topo.Locations, err = topology.BuildLocations(ctx, tx, p, topo.Site, marker); err != nil {
		return fmt.Errorf("building locations: %w", err)
	}

	g.phase("creating racks...")
	if topo.Racks, err = topology.BuildRacks(ctx, tx, p, topo.Locations, marker); err != nil {
		return fmt.Errorf("building racks: %w", err)
	}

	g.phase("creating VLANs...")
	if cat.VLANGroup, cat.VLANs, err = catalog.BuildVLANs(ctx, tx, p, topo.Site, marker); err != nil {
		return fmt.Errorf("building vlans: %w", err)
	}

	g.phase("creating prefixes...")
	if cat.Prefixes, err = catalog.BuildPrefixes(ctx, tx, p, topo.Site, marker); err != nil {
		return fmt.Errorf("building prefixes: %w", err)
	}

	g.phase("creating devices...")
	placements, err := inventory.Place(g.rng, p, cat, topo, inventory.Options{StrictCapacity: g.opts.StrictCapacity})
	if err != nil {
		return fmt.Errorf("placing devices: %w", err)
	}
	allocations, err := inventory.Apply(ctx, tx, topo.Site, placements, marker)
	if err != nil {
		return fmt.Errorf("creating devices: %w", err)
	}
	g.result.Devices = len(allocations)

	slugs := make(map[string]string, len(topo.Locations))
	for slug, l := range topo.Locations {
		slugs[l.ID] = slug
	}

	targets := make([]ipam.Target, 0, len(allocations))
	for _, a := range allocations {
		if a.Created {
			g.result.CreatedDevices++
			n, err := iface.Synthesize(ctx, tx, g.rng, a.Device, marker)
			if err != nil {
				return fmt.Errorf("creating interfaces: %w", err)
			}
			g.result.Interfaces += n
		}
		targets = append(targets, ipam.Target{Device: a.Device, Location: targetLocation(a, slugs)})
	}

	g.phase("assigning IP addresses...")
	g.result.Addresses, err = ipam.Assign(ctx, tx, g.rng, targets, ipam.Options{
		Block:   p.Block,
		Retries: g.opts.AddressRetries,
		Marker:  marker,
	})
	if err != nil {
		return fmt.Errorf("assigning addresses: %w", err)
	}

	return nil
}

// targetLocation keys the address block of an allocated device. A reused
// device keeps its stored location: none means no address, a planned room
// uses its own block, and a room outside the plan falls back to the default
// block. slugs maps planned location IDs to slugs.
func targetLocation(a inventory.Allocation, slugs map[string]string) string {
	id := a.Device.LocationID
	if id == "" {
		return ""
	}
	if slug, ok := slugs[id]; ok {
		return slug
	}
	return "unmapped:" + id
}
