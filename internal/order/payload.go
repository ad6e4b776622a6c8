package order

import (
	"github.com/shopspring/decimal"
)

// ItemPayload is one order_items element in the create/update body. The
// denormalized display name never travels to the server.
type ItemPayload struct {
	ServiceID   int             `json:"service_id"`
	ItemPrice   decimal.Decimal `json:"item_price"`
	Quantity    int             `json:"quantity" validate:"min=1"`
	ItemComment string          `json:"item_comment"`
}

// Payload is the create/update request body for POST /orders/create/ and
// PUT /orders/<id>/.
type Payload struct {
	Client                int           `json:"client" validate:"required"`
	Car                   int           `json:"car" validate:"required"`
	Status                int           `json:"status" validate:"required"`
	Urgency               string        `json:"urgency" validate:"required,oneof=NRM URG VUR"`
	PlannedCompletionDate *string       `json:"planned_completion_date"`
	ClientComment         string        `json:"client_comment"`
	PerformerID           *int          `json:"performer_id"`
	OrderItems            []ItemPayload `json:"order_items" validate:"dive"`
}

// Payload serializes the draft into the wire shape: performer_id is null
// when unassigned, planned_completion_date is null when empty, and
// order_items is always present (an empty list for an itemless draft).
func (d *Draft) Payload() Payload {
	p := Payload{
		Client:        d.ClientID,
		Car:           d.VehicleID,
		Status:        d.StatusID,
		Urgency:       d.Urgency.String(),
		ClientComment: d.Comment,
		OrderItems:    make([]ItemPayload, 0, len(d.Items)),
	}

	if d.PlannedDate != "" {
		date := d.PlannedDate
		p.PlannedCompletionDate = &date
	}
	if d.PerformerID != 0 {
		performer := d.PerformerID
		p.PerformerID = &performer
	}

	for _, item := range d.Items {
		p.OrderItems = append(p.OrderItems, ItemPayload{
			ServiceID:   item.ServiceID,
			ItemPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			ItemComment: item.Comment,
		})
	}

	return p
}
