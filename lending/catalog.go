package lending

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"material_lending/models"
)

// Catalog lists materials with derived quantities. For a student the cart
// headroom reflects what is already in their draft.
func (s *Service) Catalog(ctx context.Context, user *models.User, f MaterialFilter) ([]MaterialView, error) {
	f.Q = strings.TrimSpace(f.Q)
	ms, err := s.store.ListMaterials(ctx, f)
	if err != nil {
		return nil, err
	}
	cart, err := s.peekCart(ctx, user)
	if err != nil {
		return nil, err
	}
	out := make([]MaterialView, 0, len(ms))
	for i := range ms {
		out = append(out, NewMaterialView(&ms[i], cart))
	}
	return out, nil
}

// Material returns one material with derived quantities.
func (s *Service) Material(ctx context.Context, user *models.User, id uint) (*MaterialView, error) {
	m, err := s.store.FindMaterial(ctx, id, false)
	if err != nil {
		return nil, err
	}
	cart, err := s.peekCart(ctx, user)
	if err != nil {
		return nil, err
	}
	v := NewMaterialView(m, cart)
	return &v, nil
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// peekCart reads the student's draft without creating one.
func (s *Service) peekCart(ctx context.Context, user *models.User) (*models.Request, error) {
	if !user.IsStudent() {
		return nil, nil
	}
	cart, err := s.store.FindDraft(ctx, user.ID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return cart, err
}

// OverdueItem is one unreturned reserved line past its due date.
type OverdueItem struct {
	RequestID   uint      `json:"requestId"`
	Reference   string    `json:"reference"`
	Student     string    `json:"student"`
	Email       string    `json:"email"`
	Material    string    `json:"material"`
	Quantity    int       `json:"quantity"`
	DueDate     time.Time `json:"dueDate"`
	DaysOverdue int       `json:"daysOverdue"`
}

// Overdue lists overdue lines across reserved requests, most overdue first.
func (s *Service) Overdue(ctx context.Context) ([]OverdueItem, error) {
	rs, err := s.store.ListRequests(ctx, RequestFilter{Statuses: []models.Status{models.StatusReserved}})
	if err != nil {
		return nil, err
	}
	return OverdueItems(rs, s.clock.Now()), nil
}

func OverdueItems(rs []models.Request, now time.Time) []OverdueItem {
	var out []OverdueItem
	for _, r := range rs {
		if r.Status != models.StatusReserved {
			continue
		}
		for i := range r.Items {
			it := &r.Items[i]
			if !IsOverdue(it, now) {
				continue
			}
			o := OverdueItem{
				RequestID:   r.ID,
				Reference:   r.Reference,
				Quantity:    it.Quantity,
				DueDate:     *it.DueDate,
				DaysOverdue: int(now.Sub(*it.DueDate).Hours() / 24),
			}
			if r.User != nil {
				o.Student, o.Email = r.User.Name, r.User.Email
			}
			if it.Material != nil {
				o.Material = it.Material.Name
			}
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// sortKey orders review listings: approval time once reserved, otherwise submission time.
func sortKey(r *models.Request) time.Time {
	switch {
	case r.Status == models.StatusReserved && r.ApprovedAt != nil:
		return *r.ApprovedAt
	case r.RequestedAt != nil:
		return *r.RequestedAt
	}
	return time.Time{}
}
