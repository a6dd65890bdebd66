package inventory

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/martinsuchenak/rackseed/internal/catalog"
	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/plan"
	"github.com/martinsuchenak/rackseed/internal/storage"
	"github.com/martinsuchenak/rackseed/internal/topology"
)

// ErrCapacityExceeded is returned in strict mode when no rack of a location
// has room left for a device
var ErrCapacityExceeded = errors.New("rack capacity exceeded")

// Options tune placement
type Options struct {
	// StrictCapacity only places a device in a rack with enough free units.
	// Only units taken by this run count; devices already stored in a
	// reused rack are not seen.
	StrictCapacity bool
}

// Placement is one device to be created: everything is decided, nothing is
// stored yet
type Placement struct {
	Name       string
	Category   string
	Location   *model.Location
	DeviceType *model.DeviceType
	Role       *model.DeviceRole
	Rack       *model.Rack
	Tenant     *model.Tenant // nil for tenant-less categories
	Status     string
	Serial     string
	AssetTag   string
}

// Allocation is a placement after it was applied to the store
type Allocation struct {
	Placement
	Device  *model.Device
	Created bool
}

// Place decides every device of the plan. Locations are walked in quota
// order and categories in plan order; a single counter numbers devices
// across both. It draws from rng only and touches no store.
func Place(rng *rand.Rand, p *plan.Plan, cat *catalog.Catalog, topo *topology.Topology, opts Options) ([]Placement, error) {
	placements := make([]Placement, 0, p.TotalDevices())
	counter := 1

	for _, q := range p.Quotas {
		def, ok := p.Location(q.Location)
		if !ok {
			return nil, fmt.Errorf("quota: location %q: %w", q.Location, plan.ErrMissingReference)
		}
		loc, ok := topo.Locations[q.Location]
		if !ok {
			return nil, fmt.Errorf("quota: location %q: %w", q.Location, plan.ErrMissingReference)
		}
		racks := topo.Racks[q.Location]
		if len(racks) == 0 {
			return nil, fmt.Errorf("location %s has no racks: %w", q.Location, plan.ErrMissingReference)
		}
		defaultTenant, err := cat.Tenant(def.Tenant)
		if err != nil {
			return nil, fmt.Errorf("location %s: %w", q.Location, err)
		}

		used := make([]int, len(racks))

		for _, c := range p.Categories {
			tenant := defaultTenant
			if c.Tenantless {
				tenant = nil
			}

			for i := 0; i < q.Counts[c.Name]; i++ {
				dt, err := cat.DeviceType(pick(rng, c.DeviceTypes))
				if err != nil {
					return nil, fmt.Errorf("category %s: %w", c.Name, err)
				}
				role, err := cat.Role(pick(rng, c.Roles))
				if err != nil {
					return nil, fmt.Errorf("category %s: %w", c.Name, err)
				}

				idx, err := pickRack(rng, racks, used, dt.UHeight, opts.StrictCapacity)
				if err != nil {
					return nil, fmt.Errorf("placing %s-%04d in %s: %w", c.Prefix, counter, q.Location, err)
				}
				used[idx] += dt.UHeight

				placements = append(placements, Placement{
					Name:       DeviceName(c.Prefix, counter),
					Category:   c.Name,
					Location:   loc,
					DeviceType: dt,
					Role:       role,
					Rack:       racks[idx],
					Tenant:     tenant,
					Status:     pick(rng, c.Statuses),
					Serial:     fmt.Sprintf("SN%d", 100000+rng.IntN(900000)),
					AssetTag:   fmt.Sprintf("ASSET-%d", 10000+rng.IntN(90000)),
				})
				counter++
			}
		}
	}

	return placements, nil
}

// DeviceName formats a device name from its category prefix and the global
// counter, e.g. SRV-0001
func DeviceName(prefix string, n int) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// Apply creates the placed devices. A device whose name exists is reused as
// stored and reported with Created false.
func Apply(ctx context.Context, tx storage.Tx, site *model.Site, placements []Placement, marker string) ([]Allocation, error) {
	allocations := make([]Allocation, 0, len(placements))
	for _, pl := range placements {
		d := &model.Device{
			Name:         pl.Name,
			DeviceTypeID: pl.DeviceType.ID,
			RoleID:       pl.Role.ID,
			SiteID:       site.ID,
			LocationID:   pl.Location.ID,
			RackID:       pl.Rack.ID,
			Status:       pl.Status,
			Serial:       pl.Serial,
			AssetTag:     pl.AssetTag,
			Marker:       marker,
		}
		if pl.Tenant != nil {
			d.TenantID = pl.Tenant.ID
		}

		created, err := tx.EnsureDevice(ctx, d)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", pl.Name, err)
		}
		if created {
			log.Debug("Created", "kind", model.KindDevice, "key", d.Name, "rack", pl.Rack.Name, "status", d.Status)
		}
		allocations = append(allocations, Allocation{Placement: pl, Device: d, Created: created})
	}
	return allocations, nil
}

func pick(rng *rand.Rand, choices []string) string {
	return choices[rng.IntN(len(choices))]
}

// pickRack draws a rack index uniformly. In strict mode only racks with room
// for height more units are eligible.
func pickRack(rng *rand.Rand, racks []*model.Rack, used []int, height int, strict bool) (int, error) {
	if !strict {
		return rng.IntN(len(racks)), nil
	}

	eligible := make([]int, 0, len(racks))
	for i, r := range racks {
		if used[i]+height <= r.UHeight {
			eligible = append(eligible, i)
		}
	}
	if len(eligible) == 0 {
		return 0, ErrCapacityExceeded
	}
	return eligible[rng.IntN(len(eligible))], nil
}
