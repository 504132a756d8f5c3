package lending

import (
	"context"

	"material_lending/models"
)

// OrderPlaced is handed to the Notifier once a request has moved to pending.
// Request has User and Items.Material.Category resolved.
type OrderPlaced struct {
	Request    *models.Request
	Recipients []string
}

type Notifier interface {
	OrderPlaced(ctx context.Context, n OrderPlaced) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) OrderPlaced(context.Context, OrderPlaced) error { return nil }

// recipients returns professor addresses, or the fallback when there are none.
func (s *Service) recipients(ctx context.Context, st Store) ([]string, error) {
	profs, err := st.ListUsersByRole(ctx, models.RoleProfessor)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(profs))
	for _, p := range profs {
		if p.Email != "" {
			out = append(out, p.Email)
		}
	}
	if len(out) == 0 && s.policy.FallbackRecipient != "" {
		out = append(out, s.policy.FallbackRecipient)
	}
	return out, nil
}
