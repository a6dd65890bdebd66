package plan

import (
	"slices"

	"github.com/martinsuchenak/rackseed/internal/model"
)

var (
	serverTypes = []string{
		"poweredge-r740", "poweredge-r640", "poweredge-r940",
		"proliant-dl380-gen10", "proliant-dl360-gen10",
		"superserver-1029u", "thinksystem-sr650", "power-system-s924",
	}
	networkTypes = []string{
		"catalyst-9300", "catalyst-9500", "nexus-9300",
		"asr-1001-x", "ex4300", "qfx5100", "7050x3",
	}
	routerTypes = []string{"r7000", "archer-ax6000"}

	serverRoles  = []string{"ops-server", "test-server", "dev-server", "db-server", "web-server"}
	networkRoles = []string{"core-router", "backbone-switch", "access-switch", "firewall"}
)

// Default returns the built-in plan: one HQ site with five server rooms
// holding 497 devices
func Default() *Plan {
	return &Plan{
		TenantGroup: Entry{Name: "Divisions", Slug: "division", Description: "Division tenant group"},
		Tenants: []Entry{
			{Name: "Infrastructure Operations", Slug: "infra-ops", Description: "Infrastructure operations and management"},
			{Name: "QA Team", Slug: "qa-team", Description: "QA and testing"},
			{Name: "RA Team", Slug: "ra-team", Description: "RA work"},
			{Name: "N Division", Slug: "n-division", Description: "Dedicated to N division"},
			{Name: "E Division", Slug: "e-division", Description: "Dedicated to E division"},
			{Name: "Security Team", Slug: "security", Description: "Security systems"},
			{Name: "Development Team", Slug: "dev-team", Description: "Development environment"},
		},
		Manufacturers: []Manufacturer{
			{Name: "Dell", Slug: "dell"},
			{Name: "HP", Slug: "hp"},
			{Name: "Cisco", Slug: "cisco"},
			{Name: "Juniper", Slug: "juniper"},
			{Name: "Arista", Slug: "arista"},
			{Name: "Supermicro", Slug: "supermicro"},
			{Name: "Lenovo", Slug: "lenovo"},
			{Name: "IBM", Slug: "ibm"},
			{Name: "Netgear", Slug: "netgear"},
			{Name: "TP-Link", Slug: "tp-link"},
		},
		DeviceTypes: []DeviceType{
			// Servers
			{"dell", "PowerEdge R740", "poweredge-r740", 2, true},
			{"dell", "PowerEdge R640", "poweredge-r640", 1, true},
			{"dell", "PowerEdge R940", "poweredge-r940", 4, true},
			{"hp", "ProLiant DL380 Gen10", "proliant-dl380-gen10", 2, true},
			{"hp", "ProLiant DL360 Gen10", "proliant-dl360-gen10", 1, true},
			{"supermicro", "SuperServer 1029U", "superserver-1029u", 1, true},
			{"lenovo", "ThinkSystem SR650", "thinksystem-sr650", 2, true},
			{"ibm", "Power System S924", "power-system-s924", 4, true},
			// Network gear
			{"cisco", "Catalyst 9300", "catalyst-9300", 1, true},
			{"cisco", "Catalyst 9500", "catalyst-9500", 1, true},
			{"cisco", "Nexus 9300", "nexus-9300", 1, true},
			{"cisco", "ASR 1001-X", "asr-1001-x", 1, true},
			{"juniper", "EX4300", "ex4300", 1, true},
			{"juniper", "QFX5100", "qfx5100", 1, true},
			{"arista", "7050X3", "7050x3", 1, true},
			// Router appliances staged for delivery
			{"netgear", "R7000", "r7000", 1, false},
			{"tp-link", "Archer AX6000", "archer-ax6000", 1, false},
		},
		Roles: []Role{
			{"Production Server", "ops-server", "0000ff", "Production servers"},
			{"Test Server", "test-server", "00ff00", "Test environment servers"},
			{"Development Server", "dev-server", "ffff00", "Development environment servers"},
			{"Database Server", "db-server", "ff00ff", "Database servers"},
			{"Web Server", "web-server", "00ffff", "Web application servers"},
			{"Core Router", "core-router", "ff0000", "Core network routers"},
			{"Backbone Switch", "backbone-switch", "ff8000", "Backbone network switches"},
			{"Access Switch", "access-switch", "ff8080", "Access layer switches"},
			{"Firewall", "firewall", "800000", "Security firewalls"},
			{"Delivery Device", "delivery-device", "808080", "Equipment configured before delivery"},
			{"Department Dedicated", "dept-dedicated", "c0c0c0", "Equipment dedicated to a department"},
			{"Unclassified", "unclassified", "404040", "Unclassified equipment"},
		},
		Site: Site{
			Name:            "HQ IDC",
			Slug:            "hq-idc",
			Facility:        "Headquarters datacenter",
			PhysicalAddress: "123 Teheran-ro, Gangnam-gu, Seoul",
			ShippingAddress: "123 Teheran-ro, Gangnam-gu, Seoul",
			Latitude:        37.5065,
			Longitude:       127.0536,
			Comments:        "Simulated site for IDC operations",
		},
		Locations: []Location{
			{Name: "B1 General", Slug: "b1-general", Description: "B1 general area server room", Racks: 4, Tenant: "infra-ops", Block: "10.1"},
			{Name: "B1 Secure", Slug: "b1-secure", Description: "B1 secure area server room", Racks: 8, Tenant: "security", Block: "10.2"},
			{Name: "3F QA RA", Slug: "3f-qa-ra", Description: "3rd floor QA/RA server room", Racks: 3, Tenant: "qa-team", Block: "10.3"},
			{Name: "4F N Division", Slug: "4f-n-div", Description: "4th floor N division server room", Racks: 6, Tenant: "n-division", Block: "10.4"},
			{Name: "5F E Division", Slug: "5f-e-div", Description: "5th floor E division server room", Racks: 4, Tenant: "e-division", Block: "10.5"},
		},
		RackHeight: 42,
		VLANGroup:  Entry{Name: "IDC VLAN", Slug: "idc-vlan", Description: "VLAN group for the IDC"},
		VLANs: []VLAN{
			{10, "Management", "Management network"},
			{20, "Production", "Production network"},
			{30, "Development", "Development network"},
			{40, "Test", "Test network"},
			{50, "DMZ", "DMZ network"},
			{100, "Storage", "Storage network"},
			{200, "Backup", "Backup network"},
		},
		Prefixes: []Prefix{
			{"10.0.0.0/8", "Whole IDC range"},
			{"10.1.0.0/16", "B1 general area"},
			{"10.2.0.0/16", "B1 secure area"},
			{"10.3.0.0/16", "3F QA RA"},
			{"10.4.0.0/16", "4F N division"},
			{"10.5.0.0/16", "5F E division"},
			{"192.168.0.0/16", "Management network"},
		},
		DefaultBlock: "10.0",
		Categories: []Category{
			{
				Name:        CategoryGeneral,
				Prefix:      "SRV",
				DeviceTypes: slices.Clone(serverTypes),
				Roles:       slices.Clone(serverRoles),
				Statuses: []string{
					model.DeviceStatusActive, model.DeviceStatusActive, model.DeviceStatusActive,
					model.DeviceStatusStaged, model.DeviceStatusPlanned,
				},
			},
			{
				Name:        CategoryDelivery,
				Prefix:      "DLV",
				DeviceTypes: slices.Clone(routerTypes),
				Roles:       []string{"delivery-device"},
				Statuses:    []string{model.DeviceStatusInventory},
			},
			{
				Name:        CategoryNetwork,
				Prefix:      "NET",
				DeviceTypes: slices.Clone(networkTypes),
				Roles:       slices.Clone(networkRoles),
				Statuses:    []string{model.DeviceStatusActive},
			},
			{
				Name:        CategoryDepartment,
				Prefix:      "DPT",
				DeviceTypes: slices.Clone(serverTypes),
				Roles:       []string{"dept-dedicated"},
				Statuses:    []string{model.DeviceStatusActive},
			},
			{
				Name:        CategoryUnclassified,
				Prefix:      "UNC",
				DeviceTypes: slices.Clone(serverTypes),
				Roles:       []string{"unclassified"},
				Statuses: []string{
					model.DeviceStatusInventory, model.DeviceStatusOffline, model.DeviceStatusPlanned,
				},
				Tenantless: true,
			},
		},
		Quotas: []Quota{
			quota("b1-general", 48, 0, 12, 2, 18),
			quota("b1-secure", 131, 0, 22, 3, 8),
			quota("3f-qa-ra", 31, 0, 3, 8, 12),
			quota("4f-n-div", 34, 9, 6, 18, 65),
			quota("5f-e-div", 29, 9, 6, 5, 18),
		},
	}
}

func quota(location string, general, delivery, network, department, unclassified int) Quota {
	return Quota{
		Location: location,
		Counts: map[string]int{
			CategoryGeneral:      general,
			CategoryDelivery:     delivery,
			CategoryNetwork:      network,
			CategoryDepartment:   department,
			CategoryUnclassified: unclassified,
		},
	}
}
