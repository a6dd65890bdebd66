package plan

import (
	"errors"
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingReference is returned when one table names a key another
	// table does not define
	ErrMissingReference = errors.New("missing reference")
	ErrInvalidPlan      = errors.New("invalid plan")
)

// Category names, in allocation order
const (
	CategoryGeneral      = "general-purpose"
	CategoryDelivery     = "delivery"
	CategoryNetwork      = "network"
	CategoryDepartment   = "department"
	CategoryUnclassified = "unclassified"
)

// Entry is a name/slug pair with free text
type Entry struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description,omitempty"`
}

type Manufacturer struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

type DeviceType struct {
	Manufacturer string `yaml:"manufacturer"` // manufacturer slug
	Model        string `yaml:"model"`
	Slug         string `yaml:"slug"`
	UHeight      int    `yaml:"u_height"`
	FullDepth    bool   `yaml:"full_depth"`
}

type Role struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Color       string `yaml:"color"`
	Description string `yaml:"description,omitempty"`
}

type Site struct {
	Name            string  `yaml:"name"`
	Slug            string  `yaml:"slug"`
	Facility        string  `yaml:"facility,omitempty"`
	PhysicalAddress string  `yaml:"physical_address,omitempty"`
	ShippingAddress string  `yaml:"shipping_address,omitempty"`
	Latitude        float64 `yaml:"latitude"`
	Longitude       float64 `yaml:"longitude"`
	Comments        string  `yaml:"comments,omitempty"`
}

// Location is one room of the site together with its rack count, the tenant
// owning its equipment and the first two octets of its management block
type Location struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description,omitempty"`
	Racks       int    `yaml:"racks"`
	Tenant      string `yaml:"tenant"` // tenant slug
	Block       string `yaml:"block"`  // e.g. "10.1"
}

type VLAN struct {
	VID         int    `yaml:"vid"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type Prefix struct {
	Prefix      string `yaml:"prefix"`
	Description string `yaml:"description,omitempty"`
}

// Category describes how devices of one kind are drawn. Statuses is a
// weighted list: repeating an entry raises its odds.
type Category struct {
	Name        string   `yaml:"name"`
	Prefix      string   `yaml:"prefix"`
	DeviceTypes []string `yaml:"device_types"`
	Roles       []string `yaml:"roles"`
	Statuses    []string `yaml:"statuses"`
	Tenantless  bool     `yaml:"tenantless,omitempty"`
}

// Quota is the number of devices per category for one location
type Quota struct {
	Location string         `yaml:"location"`
	Counts   map[string]int `yaml:"counts"`
}

// Plan is the full set of static tables the generator works from
type Plan struct {
	TenantGroup   Entry          `yaml:"tenant_group"`
	Tenants       []Entry        `yaml:"tenants"`
	Manufacturers []Manufacturer `yaml:"manufacturers"`
	DeviceTypes   []DeviceType   `yaml:"device_types"`
	Roles         []Role         `yaml:"roles"`
	Site          Site           `yaml:"site"`
	Locations     []Location     `yaml:"locations"`
	RackHeight    int            `yaml:"rack_height"`
	VLANGroup     Entry          `yaml:"vlan_group"`
	VLANs         []VLAN         `yaml:"vlans"`
	Prefixes      []Prefix       `yaml:"prefixes"`
	DefaultBlock  string         `yaml:"default_block"`
	Categories    []Category     `yaml:"categories"`
	Quotas        []Quota        `yaml:"quotas"`
}

// Load reads a YAML plan file. Top-level tables present in the file replace
// the built-in ones; absent tables keep their defaults.
func Load(path string) (*Plan, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening plan: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(p); err != nil {
		return nil, fmt.Errorf("decoding plan %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the tables are mutually consistent
func (p *Plan) Validate() error {
	manufacturers := make(map[string]bool, len(p.Manufacturers))
	for _, m := range p.Manufacturers {
		manufacturers[m.Slug] = true
	}
	types := make(map[string]DeviceType, len(p.DeviceTypes))
	for _, dt := range p.DeviceTypes {
		if !manufacturers[dt.Manufacturer] {
			return fmt.Errorf("device type %s: manufacturer %q: %w", dt.Slug, dt.Manufacturer, ErrMissingReference)
		}
		if dt.UHeight < 1 {
			return fmt.Errorf("device type %s: unit height %d: %w", dt.Slug, dt.UHeight, ErrInvalidPlan)
		}
		types[dt.Slug] = dt
	}
	roles := make(map[string]bool, len(p.Roles))
	for _, r := range p.Roles {
		roles[r.Slug] = true
	}
	tenants := make(map[string]bool, len(p.Tenants))
	for _, t := range p.Tenants {
		tenants[t.Slug] = true
	}

	if p.RackHeight < 1 {
		return fmt.Errorf("rack height %d: %w", p.RackHeight, ErrInvalidPlan)
	}
	if p.Site.Slug == "" {
		return fmt.Errorf("site slug is empty: %w", ErrInvalidPlan)
	}
	if err := checkBlock(p.DefaultBlock); err != nil {
		return fmt.Errorf("default block: %w", err)
	}

	locations := make(map[string]bool, len(p.Locations))
	for _, l := range p.Locations {
		if l.Racks < 1 {
			return fmt.Errorf("location %s: rack count %d: %w", l.Slug, l.Racks, ErrInvalidPlan)
		}
		if l.Tenant != "" && !tenants[l.Tenant] {
			return fmt.Errorf("location %s: tenant %q: %w", l.Slug, l.Tenant, ErrMissingReference)
		}
		if l.Block != "" {
			if err := checkBlock(l.Block); err != nil {
				return fmt.Errorf("location %s: %w", l.Slug, err)
			}
		}
		locations[l.Slug] = true
	}

	categories := make(map[string]bool, len(p.Categories))
	for _, c := range p.Categories {
		if len(c.DeviceTypes) == 0 || len(c.Roles) == 0 || len(c.Statuses) == 0 {
			return fmt.Errorf("category %s: empty choice list: %w", c.Name, ErrInvalidPlan)
		}
		for _, slug := range c.DeviceTypes {
			if _, ok := types[slug]; !ok {
				return fmt.Errorf("category %s: device type %q: %w", c.Name, slug, ErrMissingReference)
			}
		}
		for _, slug := range c.Roles {
			if !roles[slug] {
				return fmt.Errorf("category %s: role %q: %w", c.Name, slug, ErrMissingReference)
			}
		}
		categories[c.Name] = true
	}

	for _, q := range p.Quotas {
		if !locations[q.Location] {
			return fmt.Errorf("quota: location %q: %w", q.Location, ErrMissingReference)
		}
		for name, n := range q.Counts {
			if !categories[name] {
				return fmt.Errorf("quota %s: category %q: %w", q.Location, name, ErrMissingReference)
			}
			if n < 0 {
				return fmt.Errorf("quota %s/%s: negative count %d: %w", q.Location, name, n, ErrInvalidPlan)
			}
		}
	}

	for _, pfx := range p.Prefixes {
		if _, err := netip.ParsePrefix(pfx.Prefix); err != nil {
			return fmt.Errorf("prefix %q: %w", pfx.Prefix, ErrInvalidPlan)
		}
	}

	return nil
}

// checkBlock accepts the first two octets of an IPv4 /16, e.g. "10.4"
func checkBlock(block string) error {
	if _, err := netip.ParseAddr(block + ".0.0"); err != nil {
		return fmt.Errorf("block %q: %w", block, ErrInvalidPlan)
	}
	return nil
}

// Location returns the location definition for slug
func (p *Plan) Location(slug string) (Location, bool) {
	for _, l := range p.Locations {
		if l.Slug == slug {
			return l, true
		}
	}
	return Location{}, false
}

// Block returns the management block of a location, or the default block
// when the location is unknown or has none
func (p *Plan) Block(slug string) string {
	if l, ok := p.Location(slug); ok && l.Block != "" {
		return l.Block
	}
	return p.DefaultBlock
}

// Total is the number of devices the location should end up with
func (q Quota) Total() int {
	total := 0
	for _, n := range q.Counts {
		total += n
	}
	return total
}

// TotalDevices sums every quota
func (p *Plan) TotalDevices() int {
	total := 0
	for _, q := range p.Quotas {
		total += q.Total()
	}
	return total
}
