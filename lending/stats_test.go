package lending

import (
	"testing"
	"time"

	"material_lending/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time { v := now.Add(-d); return &v }
	day := 24 * time.Hour

	cats := []models.Category{{ID: 1, Name: "Audio"}, {ID: 2, Name: "Optics"}, {ID: 3, Name: "Unused"}}
	mic := &models.Material{ID: 10, Name: "Mic", CategoryID: 1}
	lens := &models.Material{ID: 11, Name: "Lens", CategoryID: 2}
	user := &models.User{Name: "Ana"}

	rs := []models.Request{
		{ID: 1, Status: models.StatusDraft, User: user, Items: []models.RequestItem{{Material: mic, Quantity: 50}}},
		{ID: 2, Status: models.StatusPending, User: user, RequestedAt: at(1 * day),
			Items: []models.RequestItem{{Material: mic, Quantity: 2}}},
		{ID: 3, Status: models.StatusReserved, User: user, RequestedAt: at(10 * day),
			Items: []models.RequestItem{{Material: lens, Quantity: 1, DueDate: at(2 * day)}}},
		{ID: 4, Status: models.StatusReserved, User: user, RequestedAt: at(3 * day),
			Items: []models.RequestItem{{Material: mic, Quantity: 1, DueDate: at(-2 * day)}}},
		{ID: 5, Status: models.StatusReturned, User: user, RequestedAt: at(40 * day),
			Items: []models.RequestItem{{Material: lens, Quantity: 4, Returned: true}}},
		{ID: 6, Status: models.StatusCancelled, User: user, RequestedAt: at(400 * day)},
	}

	d := BuildDashboard(rs, cats, DashboardFilter{}, now)

	assert.Equal(t, Totals{Total: 5, Pending: 1, Reserved: 2, Overdue: 1, Ongoing: 2}, d.Stats)
	assert.Equal(t, []string{"pending", "reserved", "returned", "cancelled"}, d.RequestsByStatus.Labels)
	assert.Equal(t, []int{1, 2, 1, 1}, d.RequestsByStatus.Data)

	require.Len(t, d.Recent, 5)
	assert.Equal(t, uint(2), d.Recent[0].ID)
	assert.Equal(t, uint(4), d.Recent[1].ID)
	assert.Equal(t, "Ana", d.Recent[0].Student)

	assert.Equal(t, []string{"Lens", "Mic"}, d.TopMaterials.Labels)
	assert.Equal(t, []int{5, 3}, d.TopMaterials.Data)

	assert.Equal(t, []string{"Audio", "Optics"}, d.QuantityPerCat.Labels)
	assert.Equal(t, []int{3, 5}, d.QuantityPerCat.Data)

	assert.Equal(t, []string{"Sep 25", "Oct 25", "Nov 25", "Dec 25", "January", "February"}, d.RequestsPerMonth.Labels)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 3}, d.RequestsPerMonth.Data)
}

func TestBuildDashboard_CategoryFilter(t *testing.T) {
	cats := []models.Category{{ID: 1, Name: "Audio"}, {ID: 2, Name: "Optics"}}
	rs := []models.Request{{ID: 1, Status: models.StatusPending, Items: []models.RequestItem{
		{Material: &models.Material{Name: "Mic", CategoryID: 1}, Quantity: 1},
		{Material: &models.Material{Name: "Lens", CategoryID: 2}, Quantity: 2},
	}}}

	d := BuildDashboard(rs, cats, DashboardFilter{CategoryIDs: []uint{2}}, time.Now())
	assert.Equal(t, []string{"Optics"}, d.QuantityPerCat.Labels)
	assert.Equal(t, []int{2}, d.QuantityPerCat.Data)
}

func TestBuildDashboard_TopMaterialsCapped(t *testing.T) {
	var items []models.RequestItem
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"} {
		items = append(items, models.RequestItem{Material: &models.Material{Name: name}, Quantity: i + 1})
	}
	d := BuildDashboard([]models.Request{{Status: models.StatusPending, Items: items}}, nil, DashboardFilter{}, time.Now())

	assert.Len(t, d.TopMaterials.Labels, 7)
	assert.Equal(t, "i", d.TopMaterials.Labels[0])
	assert.Equal(t, 9, d.TopMaterials.Data[0])
}

func TestBuildDashboard_RecentCapped(t *testing.T) {
	rs := make([]models.Request, 15)
	for i := range rs {
		rs[i] = models.Request{ID: uint(i + 1), Status: models.StatusPending}
	}
	d := BuildDashboard(rs, nil, DashboardFilter{}, time.Now())
	assert.Len(t, d.Recent, 10)
	assert.Equal(t, 15, d.Stats.Total)
}
