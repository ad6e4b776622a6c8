package order

import (
	"github.com/shopspring/decimal"

	"github.com/atelier/client/internal/catalog"
)

// unknownServiceName labels a hydrated line whose service has since been
// removed from the catalog.
const unknownServiceName = "Неизвестная услуга"

// Performer is a staff member assigned to a stored order.
type Performer struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
}

// SnapshotItem is an order_items element as served by GET /orders/<id>/.
// The server's record carries no display name worth trusting; hydration
// re-derives it from the service catalog.
type SnapshotItem struct {
	ServiceID   int             `json:"service_id"`
	ItemPrice   decimal.Decimal `json:"item_price"`
	Quantity    int             `json:"quantity"`
	ItemComment *string         `json:"item_comment"`
}

// Snapshot is a stored order as served by GET /orders/<id>/.
type Snapshot struct {
	ID                    int              `json:"id"`
	ClientID              int              `json:"client_id"`
	CarID                 int              `json:"car_id"`
	StatusID              int              `json:"status_id"`
	UrgencyCode           string           `json:"urgency_code"`
	PlannedCompletionDate *string          `json:"planned_completion_date"`
	ClientComment         *string          `json:"client_comment"`
	TotalCost             *decimal.Decimal `json:"total_cost"`
	Performers            []Performer      `json:"performers"`
	OrderItems            []SnapshotItem   `json:"order_items"`
}

// HydrateDraft builds an editable draft from a stored order. Service names
// are resolved against the loaded catalog. The stored order may carry
// several performers; the draft supports exactly one, so only the first is
// taken.
func HydrateDraft(snap *Snapshot, services []catalog.Service) *Draft {
	d := &Draft{
		ClientID:  snap.ClientID,
		VehicleID: snap.CarID,
		StatusID:  snap.StatusID,
		Urgency:   Urgency(snap.UrgencyCode),
	}
	if !d.Urgency.IsValid() {
		d.Urgency = UrgencyNormal
	}
	if snap.PlannedCompletionDate != nil {
		d.PlannedDate = *snap.PlannedCompletionDate
	}
	if snap.ClientComment != nil {
		d.Comment = *snap.ClientComment
	}
	if len(snap.Performers) > 0 {
		d.PerformerID = snap.Performers[0].ID
	}

	for _, item := range snap.OrderItems {
		name := unknownServiceName
		for _, s := range services {
			if s.ID == item.ServiceID {
				name = s.Name
				break
			}
		}
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		comment := ""
		if item.ItemComment != nil {
			comment = *item.ItemComment
		}
		d.Items = append(d.Items, LineItem{
			ServiceID:   item.ServiceID,
			ServiceName: name,
			UnitPrice:   item.ItemPrice,
			Quantity:    quantity,
			Comment:     comment,
		})
	}

	return d
}
