package topology

import (
	"context"
	"fmt"

	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/plan"
	"github.com/martinsuchenak/rackseed/internal/storage"
)

// Topology is the site, its locations by slug and each location's racks in
// index order
type Topology struct {
	Site      *model.Site
	Locations map[string]*model.Location
	Racks     map[string][]*model.Rack
}

// RackCount returns the number of racks across every location
func (t *Topology) RackCount() int {
	n := 0
	for _, racks := range t.Racks {
		n += len(racks)
	}
	return n
}

// RackName formats the name of the index-th (1-based) rack of a location
func RackName(locationName string, index int) string {
	return fmt.Sprintf("%s-RACK-%02d", locationName, index)
}

func BuildSite(ctx context.Context, tx storage.Tx, p *plan.Plan, marker string) (*model.Site, error) {
	site := &model.Site{
		Name:            p.Site.Name,
		Slug:            p.Site.Slug,
		Status:          model.SiteStatusActive,
		Facility:        p.Site.Facility,
		PhysicalAddress: p.Site.PhysicalAddress,
		ShippingAddress: p.Site.ShippingAddress,
		Latitude:        p.Site.Latitude,
		Longitude:       p.Site.Longitude,
		Comments:        p.Site.Comments,
		Marker:          marker,
	}
	created, err := tx.EnsureSite(ctx, site)
	if err != nil {
		return nil, err
	}
	if created {
		log.Debug("Created", "kind", model.KindSite, "key", site.Slug)
	}
	return site, nil
}

func BuildLocations(ctx context.Context, tx storage.Tx, p *plan.Plan, site *model.Site, marker string) (map[string]*model.Location, error) {
	locations := make(map[string]*model.Location, len(p.Locations))
	for _, def := range p.Locations {
		l := &model.Location{
			SiteID:      site.ID,
			Name:        def.Name,
			Slug:        def.Slug,
			Description: def.Description,
			Marker:      marker,
		}
		created, err := tx.EnsureLocation(ctx, l)
		if err != nil {
			return nil, err
		}
		if created {
			log.Debug("Created", "kind", model.KindLocation, "key", l.Slug)
		}
		locations[def.Slug] = l
	}
	return locations, nil
}

// BuildRacks creates each location's racks from its rack count. Rack names use
// the stored location name, so a reused location keeps its rack names.
func BuildRacks(ctx context.Context, tx storage.Tx, p *plan.Plan, locations map[string]*model.Location, marker string) (map[string][]*model.Rack, error) {
	racks := make(map[string][]*model.Rack, len(p.Locations))
	for _, def := range p.Locations {
		l, ok := locations[def.Slug]
		if !ok {
			return nil, fmt.Errorf("racks: location %q: %w", def.Slug, plan.ErrMissingReference)
		}

		list := make([]*model.Rack, 0, def.Racks)
		for i := 1; i <= def.Racks; i++ {
			r := &model.Rack{
				SiteID:     l.SiteID,
				LocationID: l.ID,
				Name:       RackName(l.Name, i),
				Status:     model.RackStatusActive,
				UHeight:    p.RackHeight,
				Marker:     marker,
			}
			created, err := tx.EnsureRack(ctx, r)
			if err != nil {
				return nil, err
			}
			if created {
				log.Debug("Created", "kind", model.KindRack, "key", r.Name)
			}
			list = append(list, r)
		}
		racks[def.Slug] = list
	}
	return racks, nil
}
