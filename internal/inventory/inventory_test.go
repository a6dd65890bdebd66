package inventory

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/martinsuchenak/rackseed/internal/catalog"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/plan"
	"github.com/martinsuchenak/rackseed/internal/topology"
)

// fixture builds an in-memory catalog and topology for p, with IDs derived
// from slugs
func fixture(p *plan.Plan) (*catalog.Catalog, *topology.Topology) {
	cat := &catalog.Catalog{
		Tenants:     map[string]*model.Tenant{},
		DeviceTypes: map[string]*model.DeviceType{},
		Roles:       map[string]*model.DeviceRole{},
	}
	for _, t := range p.Tenants {
		cat.Tenants[t.Slug] = &model.Tenant{ID: "tenant-" + t.Slug, Name: t.Name, Slug: t.Slug}
	}
	for _, dt := range p.DeviceTypes {
		cat.DeviceTypes[dt.Slug] = &model.DeviceType{ID: "type-" + dt.Slug, Model: dt.Model, Slug: dt.Slug, UHeight: dt.UHeight}
	}
	for _, r := range p.Roles {
		cat.Roles[r.Slug] = &model.DeviceRole{ID: "role-" + r.Slug, Name: r.Name, Slug: r.Slug}
	}

	site := &model.Site{ID: "site-" + p.Site.Slug, Slug: p.Site.Slug}
	topo := &topology.Topology{
		Site:      site,
		Locations: map[string]*model.Location{},
		Racks:     map[string][]*model.Rack{},
	}
	for _, l := range p.Locations {
		loc := &model.Location{ID: "loc-" + l.Slug, SiteID: site.ID, Name: l.Name, Slug: l.Slug}
		topo.Locations[l.Slug] = loc
		for i := 1; i <= l.Racks; i++ {
			name := topology.RackName(l.Name, i)
			topo.Racks[l.Slug] = append(topo.Racks[l.Slug], &model.Rack{
				ID: "rack-" + name, SiteID: site.ID, LocationID: loc.ID, Name: name, UHeight: p.RackHeight,
			})
		}
	}
	return cat, topo
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestPlace_QuotaConformance(t *testing.T) {
	p := plan.Default()
	cat, topo := fixture(p)

	placements, err := Place(newRand(1), p, cat, topo, Options{})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}
	if len(placements) != 497 {
		t.Errorf("Expected 497 placements, got %d", len(placements))
	}

	perLocation := map[string]int{}
	perCategory := map[string]map[string]int{}
	for _, pl := range placements {
		perLocation[pl.Location.Slug]++
		if perCategory[pl.Location.Slug] == nil {
			perCategory[pl.Location.Slug] = map[string]int{}
		}
		perCategory[pl.Location.Slug][pl.Category]++
	}
	if perLocation["b1-general"] != 80 {
		t.Errorf("Expected 80 devices in b1-general, got %d", perLocation["b1-general"])
	}
	for _, q := range p.Quotas {
		for name, want := range q.Counts {
			if got := perCategory[q.Location][name]; got != want {
				t.Errorf("%s/%s: expected %d, got %d", q.Location, name, want, got)
			}
		}
	}
}

func TestPlace_Naming(t *testing.T) {
	p := plan.Default()
	cat, topo := fixture(p)

	placements, err := Place(newRand(2), p, cat, topo, Options{})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}

	if placements[0].Name != "SRV-0001" {
		t.Errorf("Expected first device SRV-0001, got %s", placements[0].Name)
	}
	// b1-general: 48 SRV, 0 DLV, 12 NET, 2 DPT, 18 UNC
	if placements[48].Name != "NET-0049" {
		t.Errorf("Expected NET-0049, got %s", placements[48].Name)
	}
	if placements[80].Name != "SRV-0081" {
		t.Errorf("Expected second location to continue at SRV-0081, got %s", placements[80].Name)
	}

	seen := map[string]bool{}
	for i, pl := range placements {
		if seen[pl.Name] {
			t.Fatalf("Duplicate name %s", pl.Name)
		}
		seen[pl.Name] = true
		if want := DeviceName(prefixOf(p, pl.Category), i+1); pl.Name != want {
			t.Errorf("Expected %s, got %s", want, pl.Name)
		}
	}
}

func prefixOf(p *plan.Plan, category string) string {
	for _, c := range p.Categories {
		if c.Name == category {
			return c.Prefix
		}
	}
	return ""
}

func TestPlace_CategoryRules(t *testing.T) {
	p := plan.Default()
	cat, topo := fixture(p)

	placements, err := Place(newRand(3), p, cat, topo, Options{})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}

	allowed := func(list []string, v string) bool {
		for _, s := range list {
			if s == v {
				return true
			}
		}
		return false
	}

	for _, pl := range placements {
		var c plan.Category
		for _, cc := range p.Categories {
			if cc.Name == pl.Category {
				c = cc
			}
		}
		if !allowed(c.DeviceTypes, pl.DeviceType.Slug) {
			t.Errorf("%s: device type %s not allowed for %s", pl.Name, pl.DeviceType.Slug, c.Name)
		}
		if !allowed(c.Roles, pl.Role.Slug) {
			t.Errorf("%s: role %s not allowed for %s", pl.Name, pl.Role.Slug, c.Name)
		}
		if !allowed(c.Statuses, pl.Status) {
			t.Errorf("%s: status %s not allowed for %s", pl.Name, pl.Status, c.Name)
		}
		if pl.Rack.LocationID != pl.Location.ID {
			t.Errorf("%s: rack %s outside location %s", pl.Name, pl.Rack.Name, pl.Location.Slug)
		}
		if c.Tenantless && pl.Tenant != nil {
			t.Errorf("%s: expected no tenant", pl.Name)
		}
		if !c.Tenantless {
			def, _ := p.Location(pl.Location.Slug)
			if pl.Tenant == nil || pl.Tenant.Slug != def.Tenant {
				t.Errorf("%s: expected tenant %s", pl.Name, def.Tenant)
			}
		}
		if !strings.HasPrefix(pl.Serial, "SN") || len(pl.Serial) != 8 {
			t.Errorf("%s: bad serial %s", pl.Name, pl.Serial)
		}
		if !strings.HasPrefix(pl.AssetTag, "ASSET-") || len(pl.AssetTag) != 11 {
			t.Errorf("%s: bad asset tag %s", pl.Name, pl.AssetTag)
		}
	}
}

func TestPlace_Scenario4FNDiv(t *testing.T) {
	p := plan.Default()
	p.Quotas = []plan.Quota{{
		Location: "4f-n-div",
		Counts: map[string]int{
			plan.CategoryGeneral:      0,
			plan.CategoryDelivery:     9,
			plan.CategoryNetwork:      6,
			plan.CategoryDepartment:   18,
			plan.CategoryUnclassified: 65,
		},
	}}
	cat, topo := fixture(p)

	placements, err := Place(newRand(4), p, cat, topo, Options{})
	if err != nil {
		t.Fatalf("Place() error = %v", err)
	}

	counts := map[string]int{}
	for _, pl := range placements {
		prefix := pl.Name[:3]
		counts[prefix]++
		switch prefix {
		case "DLV":
			if pl.Status != model.DeviceStatusInventory {
				t.Errorf("%s: expected inventory, got %s", pl.Name, pl.Status)
			}
		case "NET":
			if pl.Status != model.DeviceStatusActive {
				t.Errorf("%s: expected active, got %s", pl.Name, pl.Status)
			}
		case "DPT":
			if pl.Status != model.DeviceStatusActive || pl.Role.Slug != "dept-dedicated" {
				t.Errorf("%s: expected active dept-dedicated, got %s %s", pl.Name, pl.Status, pl.Role.Slug)
			}
		case "UNC":
			if pl.Tenant != nil {
				t.Errorf("%s: expected no tenant", pl.Name)
			}
			switch pl.Status {
			case model.DeviceStatusInventory, model.DeviceStatusOffline, model.DeviceStatusPlanned:
			default:
				t.Errorf("%s: unexpected status %s", pl.Name, pl.Status)
			}
		default:
			t.Errorf("Unexpected prefix %s", prefix)
		}
	}

	want := map[string]int{"DLV": 9, "NET": 6, "DPT": 18, "UNC": 65}
	for prefix, n := range want {
		if counts[prefix] != n {
			t.Errorf("Expected %d %s devices, got %d", n, prefix, counts[prefix])
		}
	}
}

func TestPlace_SeededDeterminism(t *testing.T) {
	p := plan.Default()
	cat, topo := fixture(p)

	a, err := Place(newRand(42), p, cat, topo, Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Place(newRand(42), p, cat, topo, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Placement %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestPlace_MissingReference(t *testing.T) {
	p := plan.Default()
	cat, topo := fixture(p)
	delete(cat.Roles, "dept-dedicated")

	_, err := Place(newRand(5), p, cat, topo, Options{})
	if !errors.Is(err, plan.ErrMissingReference) {
		t.Errorf("Expected ErrMissingReference, got %v", err)
	}
}

func TestPlace_StrictCapacity(t *testing.T) {
	p := plan.Default()
	p.Locations = p.Locations[:1]
	p.Locations[0].Racks = 1
	p.Quotas = []plan.Quota{{
		Location: "b1-general",
		Counts:   map[string]int{plan.CategoryGeneral: 43},
	}}
	// Every server is at least 1U, so 43 can never fit a 42U rack
	cat, topo := fixture(p)

	if _, err := Place(newRand(6), p, cat, topo, Options{}); err != nil {
		t.Errorf("Expected lenient mode to overfill, got %v", err)
	}
	_, err := Place(newRand(6), p, cat, topo, Options{StrictCapacity: true})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("Expected ErrCapacityExceeded, got %v", err)
	}
}

func TestPlace_StrictCapacityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := plan.Default()
		p.Quotas = []plan.Quota{{
			Location: "3f-qa-ra",
			Counts: map[string]int{
				plan.CategoryGeneral: rapid.IntRange(0, 30).Draw(t, "general"),
				plan.CategoryNetwork: rapid.IntRange(0, 30).Draw(t, "network"),
			},
		}}
		cat, topo := fixture(p)
		seed := rapid.Uint64().Draw(t, "seed")

		placements, err := Place(newRand(seed), p, cat, topo, Options{StrictCapacity: true})
		if errors.Is(err, ErrCapacityExceeded) {
			return
		}
		if err != nil {
			t.Fatalf("Place() error = %v", err)
		}

		used := map[string]int{}
		for _, pl := range placements {
			used[pl.Rack.ID] += pl.DeviceType.UHeight
		}
		for id, u := range used {
			if u > p.RackHeight {
				t.Fatalf("Rack %s holds %dU of %dU", id, u, p.RackHeight)
			}
		}
	})
}

func TestPlace_CountProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := plan.Default()
		counts := map[string]int{}
		for _, c := range p.Categories {
			counts[c.Name] = rapid.IntRange(0, 25).Draw(t, c.Name)
		}
		p.Quotas = []plan.Quota{{Location: "5f-e-div", Counts: counts}}
		cat, topo := fixture(p)

		placements, err := Place(newRand(rapid.Uint64().Draw(t, "seed")), p, cat, topo, Options{})
		if err != nil {
			t.Fatalf("Place() error = %v", err)
		}
		if len(placements) != p.TotalDevices() {
			t.Fatalf("Expected %d placements, got %d", p.TotalDevices(), len(placements))
		}
		for _, pl := range placements {
			if pl.Category == plan.CategoryUnclassified && pl.Tenant != nil {
				t.Fatalf("%s: unclassified device has a tenant", pl.Name)
			}
			if pl.Rack.SiteID != topo.Site.ID || pl.Location.SiteID != topo.Site.ID {
				t.Fatalf("%s: placed outside the site", pl.Name)
			}
		}
	})
}
