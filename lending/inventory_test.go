package lending

import (
	"testing"
	"time"

	"material_lending/models"

	"github.com/stretchr/testify/assert"
)

func line(qty int, status models.Status, returned bool) models.RequestItem {
	return models.RequestItem{Quantity: qty, Returned: returned, Request: &models.Request{Status: status}}
}

func TestBorrowedQuantity_StatusRule(t *testing.T) {
	m := &models.Material{ID: 1, Quantity: 10, RequestItems: []models.RequestItem{
		line(1, models.StatusDraft, false),
		line(2, models.StatusPending, false),
		line(3, models.StatusReserved, false),
		line(4, models.StatusReserved, true),
		line(5, models.StatusReturned, true),
		line(6, models.StatusCancelled, false),
	}}

	assert.Equal(t, 5, BorrowedQuantity(m))
	assert.Equal(t, 5, AvailableQuantity(m))
	assert.True(t, IsAvailable(m))
}

func TestAvailableQuantity_Invariant(t *testing.T) {
	cases := []struct {
		name  string
		total int
		items []models.RequestItem
	}{
		{"no items", 3, nil},
		{"fully borrowed", 2, []models.RequestItem{line(2, models.StatusReserved, false)}},
		{"drafts only", 4, []models.RequestItem{line(4, models.StatusDraft, false)}},
		{"missing parent", 4, []models.RequestItem{{Quantity: 9}}},
		{"mixed", 7, []models.RequestItem{line(1, models.StatusPending, false), line(2, models.StatusCancelled, false)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &models.Material{Quantity: tc.total, RequestItems: tc.items}
			b := BorrowedQuantity(m)
			assert.GreaterOrEqual(t, b, 0)
			assert.Equal(t, tc.total-b, AvailableQuantity(m))
		})
	}
}

func TestIsAvailable_ZeroStock(t *testing.T) {
	m := &models.Material{Quantity: 2, RequestItems: []models.RequestItem{line(2, models.StatusPending, false)}}
	assert.False(t, IsAvailable(m))
	assert.Equal(t, 0, AvailableQuantity(m))
}

func TestCartHeadroom(t *testing.T) {
	m := &models.Material{ID: 7, Quantity: 5}
	cart := &models.Request{Status: models.StatusDraft, Items: []models.RequestItem{{MaterialID: 7, Quantity: 3}}}

	assert.Equal(t, 2, CartHeadroom(m, cart))
	assert.Equal(t, 5, CartHeadroom(m, nil))
	assert.Equal(t, 5, CartHeadroom(m, &models.Request{}))

	cart.Items[0].Quantity = 9
	assert.Equal(t, 0, CartHeadroom(m, cart))
}

func TestIsBorrowedAndOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	it := &models.RequestItem{DueDate: &past}
	assert.True(t, IsBorrowed(it, models.StatusReserved))
	assert.False(t, IsBorrowed(it, models.StatusDraft))
	assert.True(t, IsOverdue(it, now))

	it.DueDate = &future
	assert.False(t, IsOverdue(it, now))

	it.DueDate = &past
	it.Returned = true
	assert.False(t, IsBorrowed(it, models.StatusReserved))
	assert.False(t, IsOverdue(it, now))

	assert.False(t, IsOverdue(&models.RequestItem{}, now))
}

func TestNewMaterialView(t *testing.T) {
	m := &models.Material{ID: 3, Name: "Oscilloscope", Quantity: 4, RequestItems: []models.RequestItem{
		line(1, models.StatusReserved, false),
	}}
	cart := &models.Request{Items: []models.RequestItem{{MaterialID: 3, Quantity: 2}}}

	v := NewMaterialView(m, cart)
	assert.Equal(t, "Oscilloscope", v.Name)
	assert.Equal(t, 1, v.BorrowedQuantity)
	assert.Equal(t, 3, v.AvailableQuantity)
	assert.True(t, v.IsAvailable)
	assert.Equal(t, 1, v.CartHeadroom)
}
