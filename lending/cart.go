package lending

import (
	"context"
	"errors"
	"sort"

	"material_lending/models"

	"go.uber.org/zap"
)

// CartFor returns the student's draft request, creating it on first access.
func (s *Service) CartFor(ctx context.Context, user *models.User) (*models.Request, error) {
	if err := requireRole(user, models.RoleStudent); err != nil {
		return nil, err
	}
	var cart *models.Request
	err := s.store.Transaction(ctx, func(tx Store) error {
		var err error
		cart, err = s.cartFor(ctx, tx, user)
		return err
	})
	return cart, err
}

func (s *Service) cartFor(ctx context.Context, st Store, user *models.User) (*models.Request, error) {
	cart, err := st.FindDraft(ctx, user.ID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	cart, err = s.createDraftFor(ctx, st, user)
	if err != nil {
		// lost the race on the one-draft-per-user index: use the winner's draft
		if existing, ferr := st.FindDraft(ctx, user.ID); ferr == nil {
			return existing, nil
		}
		return nil, err
	}
	return cart, nil
}

func (s *Service) createDraftFor(ctx context.Context, st Store, user *models.User) (*models.Request, error) {
	ref, err := s.ids.New()
	if err != nil {
		return nil, err
	}
	r := &models.Request{
		Reference: ref,
		UserID:    user.ID,
		Status:    models.StatusDraft,
	}
	if err := st.CreateRequest(ctx, r); err != nil {
		return nil, err
	}
	if err := st.AppendEvent(ctx, &models.RequestEvent{
		RequestID: r.ID,
		ActorID:   user.ID,
		Operation: string(OpCreateDraft),
		ToStatus:  models.StatusDraft,
		CreatedAt: s.clock.Now(),
	}); err != nil {
		return nil, err
	}
	s.log.Info("draft created", zap.Uint("request_id", r.ID), zap.Uint("user_id", user.ID))
	return r, nil
}

// AddToCart puts quantity units of a material in the cart for days days. A line for the
// same material is incremented; the combined quantity must fit the available stock.
func (s *Service) AddToCart(ctx context.Context, user *models.User, materialID uint, quantity, days int) (*models.Request, error) {
	if err := requireRole(user, models.RoleStudent); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, NewValidationError("material", materialID, "quantity must be at least 1")
	}
	if days < 1 {
		return nil, NewValidationError("material", materialID, "days must be at least 1")
	}

	var cartID uint
	err := s.store.Transaction(ctx, func(tx Store) error {
		// 1) lock the material row so the availability check holds until commit
		m, err := tx.FindMaterial(ctx, materialID, true)
		if err != nil {
			return err
		}
		if days > m.MaxDaysPerRequest {
			return NewValidationError("material", m.ID, "days exceeds max_days_per_request")
		}

		// 2) draft only
		cart, err := s.cartFor(ctx, tx, user)
		if err != nil {
			return err
		}
		if _, err := Next(cart.ID, cart.Status, OpAddItem); err != nil {
			return err
		}
		cartID = cart.ID

		// 3) combined quantity against current stock
		available := AvailableQuantity(m)
		existing := cart.ItemFor(m.ID)
		total := quantity
		if existing != nil {
			total += existing.Quantity
		}
		if total > available {
			return NewInsufficientStockError(m, total, available)
		}

		// 4) provisional due date; replaced on order and on reservation
		due := s.clock.Now().AddDate(0, 0, days)
		if existing != nil {
			existing.Quantity = total
			existing.RequestedDays = days
			existing.DueDate = &due
			return tx.UpdateItem(ctx, existing)
		}
		return tx.CreateItem(ctx, &models.RequestItem{
			RequestID:     cart.ID,
			MaterialID:    m.ID,
			Quantity:      quantity,
			RequestedDays: days,
			DueDate:       &due,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("item added to cart",
		zap.Uint("request_id", cartID), zap.Uint("material_id", materialID), zap.Int("quantity", quantity))
	return s.store.FindRequest(ctx, cartID, false)
}

// RemoveFromCart deletes the cart line for materialID.
func (s *Service) RemoveFromCart(ctx context.Context, user *models.User, materialID uint) (*models.Request, error) {
	if err := requireRole(user, models.RoleStudent); err != nil {
		return nil, err
	}
	var cartID uint
	err := s.store.Transaction(ctx, func(tx Store) error {
		if _, err := tx.FindMaterial(ctx, materialID, false); err != nil {
			return err
		}
		cart, err := s.cartFor(ctx, tx, user)
		if err != nil {
			return err
		}
		if _, err := Next(cart.ID, cart.Status, OpRemoveItem); err != nil {
			return err
		}
		cartID = cart.ID
		it := cart.ItemFor(materialID)
		if it == nil {
			return &Error{Kind: KindNotFound, Entity: "material", EntityID: materialID, Message: "material is not in the cart"}
		}
		return tx.DeleteItem(ctx, it.ID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("item removed from cart", zap.Uint("request_id", cartID), zap.Uint("material_id", materialID))
	return s.store.FindRequest(ctx, cartID, false)
}

// PlaceOrder submits the student's cart: due dates are set from each material's
// max_days_per_request, requested_at is stamped and the request becomes pending.
func (s *Service) PlaceOrder(ctx context.Context, user *models.User) (*models.Request, error) {
	if err := requireRole(user, models.RoleStudent); err != nil {
		return nil, err
	}

	var placed *models.Request
	var recipients []string
	err := s.store.Transaction(ctx, func(tx Store) error {
		cart, err := s.cartFor(ctx, tx, user)
		if err != nil {
			return err
		}
		if _, err := Next(cart.ID, cart.Status, OpPlaceOrder); err != nil {
			return err
		}
		if cart.IsEmpty() {
			return NewEmptyCartError(cart.ID)
		}

		now := s.clock.Now()
		// lock materials in id order so concurrent orders cannot deadlock
		items := make([]*models.RequestItem, 0, len(cart.Items))
		for i := range cart.Items {
			items = append(items, &cart.Items[i])
		}
		sort.Slice(items, func(i, j int) bool { return items[i].MaterialID < items[j].MaterialID })

		for _, it := range items {
			m, err := tx.FindMaterial(ctx, it.MaterialID, true)
			if err != nil {
				return err
			}
			if available := AvailableQuantity(m); it.Quantity > available {
				return NewInsufficientStockError(m, it.Quantity, available)
			}
			due := now.AddDate(0, 0, m.MaxDaysPerRequest)
			it.DueDate = &due
			if err := tx.UpdateItem(ctx, it); err != nil {
				return err
			}
		}

		cart.RequestedAt = timePtr(now)
		if err := s.apply(ctx, tx, user, cart, OpPlaceOrder); err != nil {
			return err
		}
		if err := tx.UpdateRequest(ctx, cart); err != nil {
			return err
		}

		placed, err = tx.FindRequest(ctx, cart.ID, false)
		if err != nil {
			return err
		}
		recipients, err = s.recipients(ctx, tx)
		if err != nil {
			return err
		}
		if s.policy.StrictNotify {
			return s.notifier.OrderPlaced(ctx, OrderPlaced{Request: placed, Recipients: recipients})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		zap.Uint("request_id", placed.ID), zap.String("reference", placed.Reference), zap.Int("items", len(placed.Items)))

	if !s.policy.StrictNotify {
		if nerr := s.notifier.OrderPlaced(ctx, OrderPlaced{Request: placed, Recipients: recipients}); nerr != nil {
			s.log.Warn("order notification failed",
				zap.Uint("request_id", placed.ID), zap.Strings("recipients", recipients), zap.Error(nerr))
		}
	}
	return placed, nil
}
