package auth

import "strings"

type StaffPermission string

const (
	PermTablesBooked    StaffPermission = "tables_booked"
	PermWaitingOrders   StaffPermission = "waiting_orders"
	PermPreparingOrders StaffPermission = "preparing_orders"
	PermServedOrders    StaffPermission = "served_orders"
	PermCancelledOrders StaffPermission = "cancelled_orders"
	PermOrderStatus     StaffPermission = "order_status"
	PermDashboard       StaffPermission = "dashboard"
)

var rolePermissions = map[UserRole][]StaffPermission{
	RoleAdmin: {
		PermDashboard, PermTablesBooked, PermWaitingOrders, PermPreparingOrders,
		PermServedOrders, PermCancelledOrders, PermOrderStatus,
	},
	RoleWaiter: {
		PermDashboard, PermTablesBooked, PermWaitingOrders, PermServedOrders, PermOrderStatus,
	},
	RoleKitchen: {
		PermDashboard, PermWaitingOrders, PermPreparingOrders, PermOrderStatus,
	},
}

var apiPermissionMap = map[string]StaffPermission{
	"/api/staff/venues":       PermDashboard,
	"/api/staff/orders":       PermOrderStatus,
	"GET /api/staff/orders":   PermDashboard,
	"/api/staff/waiter-calls": PermTablesBooked,
	"/api/staff/metrics":      PermDashboard,
}

func PermissionsForRole(role UserRole) []StaffPermission {
	return append([]StaffPermission(nil), rolePermissions[role]...)
}

func HasPermission(role UserRole, perm StaffPermission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// GetPermissionForAPI returns the permission guarding a staff route. The
// longest matching prefix wins; a method-specific key beats a generic one of
// the same length.
func GetPermissionForAPI(path string, method string) *StaffPermission {
	method = strings.ToUpper(strings.TrimSpace(method))

	var bestPath string
	var bestPerm *StaffPermission
	var bestMethodSpecific bool

	for key, perm := range apiPermissionMap {
		keyPath := key
		methodSpecific := false
		if keyMethod, rest, ok := strings.Cut(key, " "); ok {
			if method == "" || method != strings.ToUpper(keyMethod) {
				continue
			}
			keyPath = strings.TrimSpace(rest)
			methodSpecific = true
		}

		if !strings.HasPrefix(path, keyPath) {
			continue
		}

		if bestPerm == nil || len(keyPath) > len(bestPath) || (len(keyPath) == len(bestPath) && methodSpecific && !bestMethodSpecific) {
			bestPath = keyPath
			bestMethodSpecific = methodSpecific
			permCopy := perm
			bestPerm = &permCopy
		}
	}

	return bestPerm
}
