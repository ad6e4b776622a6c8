// Package order implements the order-builder: an in-memory draft with line
// items and a derived total, hydration from a stored order, and submission
// to the API.
package order

import (
	"github.com/shopspring/decimal"

	"github.com/atelier/client/internal/catalog"
)

// LineItem is one service entry in a draft. Identity is ServiceID: a draft
// holds at most one line per service. UnitPrice is captured from the catalog
// when the line is added and is not live-linked to it afterwards.
type LineItem struct {
	ServiceID   int
	ServiceName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Comment     string
}

// Amount returns UnitPrice × Quantity for this line.
func (i LineItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Draft is the in-memory, unsaved representation of an order being created
// or edited. It owns its line items exclusively.
type Draft struct {
	ClientID    int
	VehicleID   int
	StatusID    int
	Urgency     Urgency
	PlannedDate string // YYYY-MM-DD, empty when not planned
	Comment     string
	PerformerID int // 0 = unassigned
	Items       []LineItem
}

// NewDraft creates an empty draft with the default urgency.
func NewDraft() *Draft {
	return &Draft{Urgency: UrgencyNormal}
}

// SetClient selects the order's client. The previously selected vehicle
// belongs to the prior client and is always cleared, whatever it was.
func (d *Draft) SetClient(clientID int) {
	d.ClientID = clientID
	d.VehicleID = 0
}

// AddLineItem appends a line for serviceID with quantity 1 and the price
// captured from the catalog. It is a no-op when serviceID is zero, already
// present, or not in the catalog; the id always originates from a control
// populated from that same catalog, so there is nothing to report.
func (d *Draft) AddLineItem(serviceID int, services []catalog.Service) bool {
	if serviceID == 0 || d.HasService(serviceID) {
		return false
	}
	for _, s := range services {
		if s.ID == serviceID {
			d.Items = append(d.Items, LineItem{
				ServiceID:   s.ID,
				ServiceName: s.Name,
				UnitPrice:   s.BasePrice,
				Quantity:    1,
			})
			return true
		}
	}
	return false
}

// RemoveLineItem removes the line for serviceID; a no-op when absent.
func (d *Draft) RemoveLineItem(serviceID int) bool {
	for idx, item := range d.Items {
		if item.ServiceID == serviceID {
			d.Items = append(d.Items[:idx], d.Items[idx+1:]...)
			return true
		}
	}
	return false
}

// HasService reports whether a line for serviceID exists.
func (d *Draft) HasService(serviceID int) bool {
	for _, item := range d.Items {
		if item.ServiceID == serviceID {
			return true
		}
	}
	return false
}

// Total derives the order total from the current line items. It is always
// recomputed in full; totals are never stored separately from their inputs.
func (d *Draft) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.Amount())
	}
	return total
}
