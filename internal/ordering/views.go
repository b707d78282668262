package ordering

import "qrdine-order-service/internal/utils"

// ActiveOrders filters out delivered and cancelled orders.
func ActiveOrders(orders []Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Active() {
			out = append(out, o)
		}
	}
	return out
}

func ActiveOrderCountByTable(orders []Order) map[string]int {
	counts := make(map[string]int)
	for _, o := range orders {
		if o.Active() {
			counts[o.TableID]++
		}
	}
	return counts
}

func UnreadCount(notifications []Notification) int {
	n := 0
	for _, note := range notifications {
		if !note.Read {
			n++
		}
	}
	return n
}

func CountByStatus(orders []Order) map[Status]int {
	counts := make(map[Status]int)
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}

// Totals is the price breakdown shown on the cart and on receipts. Tax is
// display-only and never stored on an order.
type Totals struct {
	ItemCount int     `json:"itemCount"`
	Subtotal  float64 `json:"subtotal"`
	TaxRate   float64 `json:"taxRate"`
	Tax       float64 `json:"tax"`
	Total     float64 `json:"total"`
}

func ComputeTotals(items []CartItem, taxRate float64) Totals {
	subtotal := utils.ToCents(Total(items))
	tax := utils.ToCents(utils.FromCents(subtotal) * taxRate)
	return Totals{
		ItemCount: ItemCount(items),
		Subtotal:  utils.FromCents(subtotal),
		TaxRate:   taxRate,
		Tax:       utils.FromCents(tax),
		Total:     utils.FromCents(subtotal + tax),
	}
}
