package lending

import (
	"context"
	"sort"
	"time"

	"material_lending/models"
)

// DashboardFilter bounds the requests that feed the dashboard.
type DashboardFilter struct {
	From        *time.Time
	To          *time.Time
	CategoryIDs []uint
}

type Totals struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Reserved int `json:"reserved"`
	Overdue  int `json:"overdue"`
	Ongoing  int `json:"ongoing"`
}

// Series is one chart: Labels[i] pairs with Data[i].
type Series struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

type RecentRequest struct {
	ID          uint          `json:"id"`
	Reference   string        `json:"reference"`
	Student     string        `json:"student"`
	Status      models.Status `json:"status"`
	RequestedAt *time.Time    `json:"requestedAt"`
}

type Dashboard struct {
	Stats            Totals            `json:"stats"`
	Recent           []RecentRequest   `json:"recent"`
	RequestsPerMonth Series            `json:"requestsPerMonth"`
	RequestsByStatus Series            `json:"requestsByStatus"`
	QuantityPerCat   Series            `json:"quantityPerCategory"`
	TopMaterials     Series            `json:"topMaterials"`
	Categories       []models.Category `json:"categories"`
	Filter           DashboardFilter   `json:"-"`
}

const (
	recentLimit      = 10
	topMaterialLimit = 7
	monthsBack       = 6
)

// Dashboard aggregates submitted requests for the professor overview.
func (s *Service) Dashboard(ctx context.Context, actor *models.User, f DashboardFilter) (*Dashboard, error) {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return nil, err
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, NewValidationError("dashboard", 0, "end date before start date")
	}
	rs, err := s.store.ListRequests(ctx, RequestFilter{RequestedFrom: f.From, RequestedTo: f.To})
	if err != nil {
		return nil, err
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	d := BuildDashboard(rs, cats, f, s.clock.Now())
	return &d, nil
}

// BuildDashboard is the pure aggregation behind Dashboard. Drafts are ignored.
func BuildDashboard(rs []models.Request, cats []models.Category, f DashboardFilter, now time.Time) Dashboard {
	submitted := make([]models.Request, 0, len(rs))
	for _, r := range rs {
		if r.Status != models.StatusDraft {
			submitted = append(submitted, r)
		}
	}
	sort.SliceStable(submitted, func(i, j int) bool {
		return requestedAt(&submitted[i]).After(requestedAt(&submitted[j]))
	})

	d := Dashboard{Categories: cats, Filter: f}

	// 1) totals
	byStatus := map[models.Status]int{}
	for i := range submitted {
		r := &submitted[i]
		byStatus[r.Status]++
		if r.Status != models.StatusReserved {
			continue
		}
		open, late := false, false
		for j := range r.Items {
			it := &r.Items[j]
			if it.Returned {
				continue
			}
			open = true
			if IsOverdue(it, now) {
				late = true
			}
		}
		if open {
			d.Stats.Ongoing++
		}
		if late {
			d.Stats.Overdue++
		}
	}
	d.Stats.Total = len(submitted)
	d.Stats.Pending = byStatus[models.StatusPending]
	d.Stats.Reserved = byStatus[models.StatusReserved]

	// 2) by status
	for _, st := range []models.Status{models.StatusPending, models.StatusReserved, models.StatusReturned, models.StatusCancelled} {
		d.RequestsByStatus.Labels = append(d.RequestsByStatus.Labels, string(st))
		d.RequestsByStatus.Data = append(d.RequestsByStatus.Data, byStatus[st])
	}

	// 3) recent
	for i := 0; i < len(submitted) && i < recentLimit; i++ {
		r := &submitted[i]
		rr := RecentRequest{ID: r.ID, Reference: r.Reference, Status: r.Status, RequestedAt: r.RequestedAt}
		if r.User != nil {
			rr.Student = r.User.Name
		}
		d.Recent = append(d.Recent, rr)
	}

	// 4) per month, oldest first
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for k := monthsBack - 1; k >= 0; k-- {
		lo := start.AddDate(0, -k, 0)
		hi := lo.AddDate(0, 1, 0)
		label := lo.Format("January")
		if lo.Year() != now.Year() {
			label = lo.Format("Jan 06")
		}
		n := 0
		for i := range submitted {
			at := submitted[i].RequestedAt
			if at != nil && !at.Before(lo) && at.Before(hi) {
				n++
			}
		}
		d.RequestsPerMonth.Labels = append(d.RequestsPerMonth.Labels, label)
		d.RequestsPerMonth.Data = append(d.RequestsPerMonth.Data, n)
	}

	// 5) quantity per category and per material
	wanted := map[uint]bool{}
	for _, id := range f.CategoryIDs {
		wanted[id] = true
	}
	perCat := map[uint]int{}
	perMat := map[string]int{}
	for i := range submitted {
		for _, it := range submitted[i].Items {
			if it.Material == nil {
				continue
			}
			perMat[it.Material.Name] += it.Quantity
			perCat[it.Material.CategoryID] += it.Quantity
		}
	}
	for _, c := range cats {
		if len(wanted) > 0 && !wanted[c.ID] {
			continue
		}
		if n := perCat[c.ID]; n > 0 {
			d.QuantityPerCat.Labels = append(d.QuantityPerCat.Labels, c.Name)
			d.QuantityPerCat.Data = append(d.QuantityPerCat.Data, n)
		}
	}

	names := make([]string, 0, len(perMat))
	for name := range perMat {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if perMat[names[i]] != perMat[names[j]] {
			return perMat[names[i]] > perMat[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > topMaterialLimit {
		names = names[:topMaterialLimit]
	}
	for _, name := range names {
		d.TopMaterials.Labels = append(d.TopMaterials.Labels, name)
		d.TopMaterials.Data = append(d.TopMaterials.Data, perMat[name])
	}
	return d
}

func requestedAt(r *models.Request) time.Time {
	if r.RequestedAt == nil {
		return time.Time{}
	}
	return *r.RequestedAt
}
