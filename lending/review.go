package lending

import (
	"context"
	"sort"

	"material_lending/models"

	"go.uber.org/zap"
)

// ConfirmAndReserve is the professor handing the materials over. Every line gets
// reserved_at = now and a due date of now + the reservation period.
func (s *Service) ConfirmAndReserve(ctx context.Context, actor *models.User, requestID uint) (*models.Request, error) {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, requestID, OpConfirm, func(ctx context.Context, tx Store, r *models.Request) error {
		now := s.clock.Now()
		r.ApprovedAt = timePtr(now)
		due := now.Add(s.policy.ReservationPeriod)
		for i := range r.Items {
			it := &r.Items[i]
			it.ReservedAt = timePtr(now)
			it.DueDate = timePtr(due)
			if err := tx.UpdateItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkAsReturned closes a reserved request and flags every line returned.
func (s *Service) MarkAsReturned(ctx context.Context, actor *models.User, requestID uint) (*models.Request, error) {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return nil, err
	}
	return s.transition(ctx, actor, requestID, OpReturn, func(ctx context.Context, tx Store, r *models.Request) error {
		r.ReturnedAt = timePtr(s.clock.Now())
		for i := range r.Items {
			it := &r.Items[i]
			it.Returned = true
			if err := tx.UpdateItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// Cancel withdraws a draft or pending request. Professors may cancel any request,
// students only their own; someone else's request is reported as not found.
func (s *Service) Cancel(ctx context.Context, actor *models.User, requestID uint) (*models.Request, error) {
	if actor == nil {
		return nil, NewForbiddenError(0, "authentication required")
	}
	return s.transition(ctx, actor, requestID, OpCancel, func(context.Context, Store, *models.Request) error {
		return nil
	})
}

// transition loads the request under lock, checks op against its status, runs
// effect and persists the request in one transaction.
func (s *Service) transition(ctx context.Context, actor *models.User, requestID uint, op Operation,
	effect func(ctx context.Context, tx Store, r *models.Request) error) (*models.Request, error) {
	var out *models.Request
	err := s.store.Transaction(ctx, func(tx Store) error {
		r, err := tx.FindRequest(ctx, requestID, true)
		if err != nil {
			return err
		}
		// ownership before status so another student's request reads as missing
		if !visibleTo(actor, r) {
			return NewNotFoundError("request", requestID)
		}
		if _, err := Next(r.ID, r.Status, op); err != nil {
			return err
		}
		if err := effect(ctx, tx, r); err != nil {
			return err
		}
		if err := s.apply(ctx, tx, actor, r, op); err != nil {
			return err
		}
		if err := tx.UpdateRequest(ctx, r); err != nil {
			return err
		}
		out, err = tx.FindRequest(ctx, r.ID, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("request transitioned",
		zap.Uint("request_id", out.ID), zap.String("operation", string(op)),
		zap.String("status", string(out.Status)), zap.Uint("actor_id", actor.ID))
	return out, nil
}

// GetRequest returns a request to a professor, or to the student who owns it.
func (s *Service) GetRequest(ctx context.Context, actor *models.User, requestID uint) (*models.Request, error) {
	if actor == nil {
		return nil, NewForbiddenError(0, "authentication required")
	}
	r, err := s.store.FindRequest(ctx, requestID, false)
	if err != nil {
		return nil, err
	}
	if !visibleTo(actor, r) {
		return nil, NewNotFoundError("request", requestID)
	}
	return r, nil
}

// visibleTo: professors see every request, students only their own.
func visibleTo(actor *models.User, r *models.Request) bool {
	return actor.IsProfessor() || r.UserID == actor.ID
}

// ListRequests is the professor's review queue. Pending requests sort by
// requested_at, reserved ones by approved_at, newest first.
func (s *Service) ListRequests(ctx context.Context, actor *models.User, f RequestFilter) ([]models.Request, error) {
	if err := requireRole(actor, models.RoleProfessor); err != nil {
		return nil, err
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, NewValidationError("request", 0, "unknown status "+string(st))
		}
	}
	rs, err := s.store.ListRequests(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rs, func(i, j int) bool {
		return sortKey(&rs[i]).After(sortKey(&rs[j]))
	})
	return rs, nil
}

// MyRequests lists the student's submitted requests, newest first.
func (s *Service) MyRequests(ctx context.Context, user *models.User) ([]models.Request, error) {
	if user == nil {
		return nil, NewForbiddenError(0, "authentication required")
	}
	rs, err := s.store.ListRequests(ctx, RequestFilter{UserID: user.ID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rs, func(i, j int) bool { return sortKey(&rs[i]).After(sortKey(&rs[j])) })
	return rs, nil
}

// History returns the transition log of a request visible to actor.
func (s *Service) History(ctx context.Context, actor *models.User, requestID uint) ([]models.RequestEvent, error) {
	if _, err := s.GetRequest(ctx, actor, requestID); err != nil {
		return nil, err
	}
	return s.store.ListEvents(ctx, requestID)
}
