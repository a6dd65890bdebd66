package catalog

import (
	"context"
	"fmt"

	"github.com/martinsuchenak/rackseed/internal/log"
	"github.com/martinsuchenak/rackseed/internal/model"
	"github.com/martinsuchenak/rackseed/internal/plan"
	"github.com/martinsuchenak/rackseed/internal/storage"
)

// Catalog is the set of lookup entities devices are drawn from, keyed by
// slug (VLANs by VID, prefixes by CIDR)
type Catalog struct {
	TenantGroup   *model.TenantGroup
	Tenants       map[string]*model.Tenant
	Manufacturers map[string]*model.Manufacturer
	DeviceTypes   map[string]*model.DeviceType
	Roles         map[string]*model.DeviceRole
	VLANGroup     *model.VLANGroup
	VLANs         map[int]*model.VLAN
	Prefixes      map[string]*model.Prefix
}

// Tenant looks up a tenant by slug; an empty slug means no tenant
func (c *Catalog) Tenant(slug string) (*model.Tenant, error) {
	if slug == "" {
		return nil, nil
	}
	t, ok := c.Tenants[slug]
	if !ok {
		return nil, fmt.Errorf("tenant %q: %w", slug, plan.ErrMissingReference)
	}
	return t, nil
}

func (c *Catalog) DeviceType(slug string) (*model.DeviceType, error) {
	dt, ok := c.DeviceTypes[slug]
	if !ok {
		return nil, fmt.Errorf("device type %q: %w", slug, plan.ErrMissingReference)
	}
	return dt, nil
}

func (c *Catalog) Role(slug string) (*model.DeviceRole, error) {
	r, ok := c.Roles[slug]
	if !ok {
		return nil, fmt.Errorf("device role %q: %w", slug, plan.ErrMissingReference)
	}
	return r, nil
}

// BuildTenants creates the tenant group and the tenants in it
func BuildTenants(ctx context.Context, tx storage.Tx, p *plan.Plan, marker string) (*model.TenantGroup, map[string]*model.Tenant, error) {
	group := &model.TenantGroup{
		Name:        p.TenantGroup.Name,
		Slug:        p.TenantGroup.Slug,
		Description: p.TenantGroup.Description,
		Marker:      marker,
	}
	created, err := tx.EnsureTenantGroup(ctx, group)
	if err != nil {
		return nil, nil, err
	}
	logEnsure(model.KindTenantGroup, group.Slug, created)

	tenants := make(map[string]*model.Tenant, len(p.Tenants))
	for _, def := range p.Tenants {
		t := &model.Tenant{
			Name:        def.Name,
			Slug:        def.Slug,
			GroupID:     group.ID,
			Description: def.Description,
			Marker:      marker,
		}
		created, err := tx.EnsureTenant(ctx, t)
		if err != nil {
			return nil, nil, err
		}
		logEnsure(model.KindTenant, t.Slug, created)
		tenants[def.Slug] = t
	}
	return group, tenants, nil
}

func BuildManufacturers(ctx context.Context, tx storage.Tx, p *plan.Plan, marker string) (map[string]*model.Manufacturer, error) {
	manufacturers := make(map[string]*model.Manufacturer, len(p.Manufacturers))
	for _, def := range p.Manufacturers {
		m := &model.Manufacturer{Name: def.Name, Slug: def.Slug, Marker: marker}
		created, err := tx.EnsureManufacturer(ctx, m)
		if err != nil {
			return nil, err
		}
		logEnsure(model.KindManufacturer, m.Slug, created)
		manufacturers[def.Slug] = m
	}
	return manufacturers, nil
}

// BuildDeviceTypes creates the device types. Each must name a manufacturer
// present in manufacturers.
func BuildDeviceTypes(ctx context.Context, tx storage.Tx, p *plan.Plan, manufacturers map[string]*model.Manufacturer, marker string) (map[string]*model.DeviceType, error) {
	types := make(map[string]*model.DeviceType, len(p.DeviceTypes))
	for _, def := range p.DeviceTypes {
		m, ok := manufacturers[def.Manufacturer]
		if !ok {
			return nil, fmt.Errorf("device type %s: manufacturer %q: %w", def.Slug, def.Manufacturer, plan.ErrMissingReference)
		}
		dt := &model.DeviceType{
			ManufacturerID: m.ID,
			Model:          def.Model,
			Slug:           def.Slug,
			UHeight:        def.UHeight,
			IsFullDepth:    def.FullDepth,
			Marker:         marker,
		}
		created, err := tx.EnsureDeviceType(ctx, dt)
		if err != nil {
			return nil, err
		}
		logEnsure(model.KindDeviceType, dt.Slug, created)
		types[def.Slug] = dt
	}
	return types, nil
}

func BuildRoles(ctx context.Context, tx storage.Tx, p *plan.Plan, marker string) (map[string]*model.DeviceRole, error) {
	roles := make(map[string]*model.DeviceRole, len(p.Roles))
	for _, def := range p.Roles {
		r := &model.DeviceRole{
			Name:        def.Name,
			Slug:        def.Slug,
			Color:       def.Color,
			Description: def.Description,
			Marker:      marker,
		}
		created, err := tx.EnsureDeviceRole(ctx, r)
		if err != nil {
			return nil, err
		}
		logEnsure(model.KindDeviceRole, r.Slug, created)
		roles[def.Slug] = r
	}
	return roles, nil
}

// BuildVLANs creates the VLAN group and its VLANs, attached to site
func BuildVLANs(ctx context.Context, tx storage.Tx, p *plan.Plan, site *model.Site, marker string) (*model.VLANGroup, map[int]*model.VLAN, error) {
	group := &model.VLANGroup{
		Name:        p.VLANGroup.Name,
		Slug:        p.VLANGroup.Slug,
		Description: p.VLANGroup.Description,
		Marker:      marker,
	}
	created, err := tx.EnsureVLANGroup(ctx, group)
	if err != nil {
		return nil, nil, err
	}
	logEnsure(model.KindVLANGroup, group.Slug, created)

	vlans := make(map[int]*model.VLAN, len(p.VLANs))
	for _, def := range p.VLANs {
		v := &model.VLAN{
			GroupID:     group.ID,
			SiteID:      site.ID,
			VID:         def.VID,
			Name:        def.Name,
			Description: def.Description,
			Marker:      marker,
		}
		created, err := tx.EnsureVLAN(ctx, v)
		if err != nil {
			return nil, nil, err
		}
		logEnsure(model.KindVLAN, v.Name, created)
		vlans[def.VID] = v
	}
	return group, vlans, nil
}

func BuildPrefixes(ctx context.Context, tx storage.Tx, p *plan.Plan, site *model.Site, marker string) (map[string]*model.Prefix, error) {
	prefixes := make(map[string]*model.Prefix, len(p.Prefixes))
	for _, def := range p.Prefixes {
		pfx := &model.Prefix{
			Prefix:      def.Prefix,
			SiteID:      site.ID,
			Description: def.Description,
			Marker:      marker,
		}
		created, err := tx.EnsurePrefix(ctx, pfx)
		if err != nil {
			return nil, err
		}
		logEnsure(model.KindPrefix, pfx.Prefix, created)
		prefixes[def.Prefix] = pfx
	}
	return prefixes, nil
}

func logEnsure(kind model.Kind, key string, created bool) {
	if created {
		log.Debug("Created", "kind", kind, "key", key)
	} else {
		log.Trace("Reused existing", "kind", kind, "key", key)
	}
}
