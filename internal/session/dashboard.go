package session

import (
	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/ordering"
)

// DashboardView is a dashboard with the stats a staff role may not see left
// out.
type DashboardView struct {
	VenueID         string                 `json:"venueId"`
	TotalTables     int                    `json:"totalTables"`
	ActiveSessions  int                    `json:"activeSessions"`
	TablesBooked    *int                   `json:"tablesBooked,omitempty"`
	WaitingOrders   *int                   `json:"waitingOrders,omitempty"`
	PreparingOrders *int                   `json:"preparingOrders,omitempty"`
	ServedOrders    *int                   `json:"servedOrders,omitempty"`
	CancelledOrders *int                   `json:"cancelledOrders,omitempty"`
	Tables          []TableStat            `json:"tables,omitempty"`
	RecentOrders    []ordering.Order       `json:"recentOrders"`
	Permissions     []auth.StaffPermission `json:"permissions"`
}

func (d Dashboard) View(role auth.UserRole) DashboardView {
	v := DashboardView{
		VenueID:        d.VenueID,
		TotalTables:    d.TotalTables,
		ActiveSessions: d.ActiveSessions,
		RecentOrders:   d.RecentOrders,
		Permissions:    auth.PermissionsForRole(role),
	}
	show := func(perm auth.StaffPermission, value int) *int {
		if !auth.HasPermission(role, perm) {
			return nil
		}
		return &value
	}
	v.TablesBooked = show(auth.PermTablesBooked, d.TablesBooked)
	v.WaitingOrders = show(auth.PermWaitingOrders, d.WaitingOrders)
	v.PreparingOrders = show(auth.PermPreparingOrders, d.PreparingOrders)
	v.ServedOrders = show(auth.PermServedOrders, d.ServedOrders)
	v.CancelledOrders = show(auth.PermCancelledOrders, d.CancelledOrders)
	if auth.HasPermission(role, auth.PermTablesBooked) {
		v.Tables = d.Tables
	}
	if v.RecentOrders == nil {
		v.RecentOrders = make([]ordering.Order, 0)
	}
	return v
}
