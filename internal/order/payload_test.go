package order

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPayloadNullables tests that unassigned performer and unset date travel
// as JSON null rather than zero values.
func TestPayloadNullables(t *testing.T) {
	d := NewDraft()
	d.SetClient(5)
	d.VehicleID = 12
	d.StatusID = 1

	data, err := json.Marshal(d.Payload())
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &wire))
	assert.Equal(t, "null", string(wire["performer_id"]))
	assert.Equal(t, "null", string(wire["planned_completion_date"]))
	assert.Equal(t, "[]", string(wire["order_items"]))
}

// TestPayloadAssignedValues tests the wire shape of a fully filled draft.
func TestPayloadAssignedValues(t *testing.T) {
	d := NewDraft()
	d.SetClient(5)
	d.VehicleID = 12
	d.StatusID = 2
	d.Urgency = UrgencyUrgent
	d.PlannedDate = "2026-09-15"
	d.Comment = "стук в передней подвеске"
	d.PerformerID = 7
	require.True(t, d.AddLineItem(3, testServices()))
	d.Items[0].Quantity = 2
	d.Items[0].Comment = "обе фары"

	p := d.Payload()
	assert.Equal(t, 5, p.Client)
	assert.Equal(t, 12, p.Car)
	assert.Equal(t, 2, p.Status)
	assert.Equal(t, "URG", p.Urgency)
	require.NotNil(t, p.PlannedCompletionDate)
	assert.Equal(t, "2026-09-15", *p.PlannedCompletionDate)
	require.NotNil(t, p.PerformerID)
	assert.Equal(t, 7, *p.PerformerID)

	require.Len(t, p.OrderItems, 1)
	item := p.OrderItems[0]
	assert.Equal(t, 3, item.ServiceID)
	assert.Equal(t, "1500.00", item.ItemPrice.StringFixed(2))
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "обе фары", item.ItemComment)

	// The denormalized display name stays client-side.
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Полировка")
}

// TestPayloadDoesNotAliasDraft tests that mutating the payload leaves the
// draft untouched.
func TestPayloadDoesNotAliasDraft(t *testing.T) {
	d := NewDraft()
	d.SetClient(5)
	require.True(t, d.AddLineItem(1, testServices()))

	p := d.Payload()
	p.OrderItems[0].Quantity = 99
	p.Client = 42

	assert.Equal(t, 1, d.Items[0].Quantity)
	assert.Equal(t, 5, d.ClientID)
}
