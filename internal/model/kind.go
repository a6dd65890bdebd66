package model

// Kind identifies an entity table in the inventory store
type Kind string

const (
	KindTenantGroup  Kind = "tenant_group"
	KindTenant       Kind = "tenant"
	KindManufacturer Kind = "manufacturer"
	KindDeviceType   Kind = "device_type"
	KindDeviceRole   Kind = "device_role"
	KindSite         Kind = "site"
	KindLocation     Kind = "location"
	KindRack         Kind = "rack"
	KindVLANGroup    Kind = "vlan_group"
	KindVLAN         Kind = "vlan"
	KindPrefix       Kind = "prefix"
	KindDevice       Kind = "device"
	KindInterface    Kind = "interface"
	KindIPAddress    Kind = "ip_address"
)

// Kinds lists every entity kind in creation order. Foreign keys only point
// from a kind to kinds earlier in the list. The clear pass uses its own order,
// see lifecycle.ClearOrder.
var Kinds = []Kind{
	KindTenantGroup,
	KindTenant,
	KindManufacturer,
	KindDeviceType,
	KindDeviceRole,
	KindSite,
	KindLocation,
	KindRack,
	KindVLANGroup,
	KindVLAN,
	KindPrefix,
	KindDevice,
	KindInterface,
	KindIPAddress,
}
