// Package receipt renders order receipts as PDF.
package receipt

import (
	"bytes"
	"fmt"
	"time"

	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/utils"

	"github.com/phpdave11/gofpdf"
)

const DefaultTaxRate = 0.10

type Line struct {
	Name         string
	Quantity     int
	UnitPrice    string
	Subtotal     string
	Instructions string
	Stall        string
}

// Data is a receipt with every amount already formatted.
type Data struct {
	VenueName   string
	VenueAddr   string
	OrderID     string
	TableNumber int
	Status      string
	PlacedAt    string
	EstimatedAt string
	Lines       []Line
	Totals      ordering.Totals
	Subtotal    string
	Tax         string
	Total       string
	TaxLabel    string
}

// Build collects receipt data for an order placed at venue. Times are shown
// in the venue's timezone when it has one.
func Build(venue catalog.Venue, order ordering.Order, taxRate float64) Data {
	loc := time.UTC
	if venue.Timezone != "" {
		if l, err := time.LoadLocation(venue.Timezone); err == nil {
			loc = l
		}
	}

	totals := ordering.ComputeTotals(order.Items, taxRate)
	d := Data{
		VenueName:   venue.Name,
		OrderID:     order.ID,
		TableNumber: order.TableNumber,
		Status:      string(order.Status),
		PlacedAt:    order.CreatedAt.In(loc).Format("2006-01-02 15:04"),
		Totals:      totals,
		Subtotal:    utils.FormatMoney(totals.Subtotal, ""),
		Tax:         utils.FormatMoney(totals.Tax, ""),
		Total:       utils.FormatMoney(totals.Total, ""),
		TaxLabel:    fmt.Sprintf("Tax (%g%%)", taxRate*100),
	}
	if venue.Location != nil {
		d.VenueAddr = venue.Location.Address
	}
	if order.EstimatedDeliveryTime != nil {
		d.EstimatedAt = order.EstimatedDeliveryTime.In(loc).Format("15:04")
	}

	for _, item := range order.Items {
		line := Line{
			Name:         item.Name,
			Quantity:     item.Quantity,
			UnitPrice:    utils.FormatMoney(item.Price, ""),
			Subtotal:     utils.FormatMoney(item.LineTotal(), ""),
			Instructions: item.SpecialInstructions,
		}
		if item.StallID != "" {
			if stall, ok := venue.Stall(item.StallID); ok {
				line.Stall = stall.Name
			}
		}
		d.Lines = append(d.Lines, line)
	}
	return d
}

func Render(data Data) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, data.VenueName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	if data.VenueAddr != "" {
		pdf.MultiCell(0, 4, data.VenueAddr, "", "C", false)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order #%s", data.OrderID), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Table %d", data.TableNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Placed: %s", data.PlacedAt), "", 1, "C", false, 0, "")
	if data.EstimatedAt != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Estimated: %s", data.EstimatedAt), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 5, fmt.Sprintf("Status: %s", data.Status), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range data.Lines {
		pdf.CellFormat(90, 5, fmt.Sprintf("%dx %s", line.Quantity, line.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, line.Subtotal, "", 1, "R", false, 0, "")
		if line.Stall != "" {
			pdf.CellFormat(0, 4, fmt.Sprintf("  from %s", line.Stall), "", 1, "L", false, 0, "")
		}
		if line.Instructions != "" {
			pdf.MultiCell(0, 4, fmt.Sprintf("  Notes: %s", line.Instructions), "", "L", false)
		}
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(90, 5, "Subtotal", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, data.Subtotal, "T", 1, "R", false, 0, "")
	pdf.CellFormat(90, 5, data.TaxLabel, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, data.Tax, "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(90, 6, "Total", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, data.Total, "", 1, "R", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
