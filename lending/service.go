package lending

import (
	"context"
	"crypto/rand"
	"time"

	"material_lending/models"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Policy holds the business knobs of the lifecycle.
type Policy struct {
	// ReservationPeriod is the fixed loan length counted from confirmation. It
	// overrides the material's max_days_per_request.
	ReservationPeriod time.Duration
	// FallbackRecipient receives order notifications when no professor exists.
	FallbackRecipient string
	// StrictNotify makes a notifier failure abort place_order.
	StrictNotify bool
}

const DefaultReservationPeriod = 3 * 24 * time.Hour

func DefaultPolicy() Policy {
	return Policy{ReservationPeriod: DefaultReservationPeriod}
}

type Service struct {
	store    Store
	notifier Notifier
	policy   Policy
	log      *zap.Logger
	clock    Clock
	ids      IDGen
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }
func WithIDGen(g IDGen) Option { return func(s *Service) { s.ids = g } }

func NewService(store Store, notifier Notifier, policy Policy, log *zap.Logger, opts ...Option) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if policy.ReservationPeriod <= 0 {
		policy.ReservationPeriod = DefaultReservationPeriod
	}
	s := &Service{
		store:    store,
		notifier: notifier,
		policy:   policy,
		log:      log,
		clock:    realClock{},
		ids:      ulidGen{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Policy() Policy { return s.policy }

func requireRole(u *models.User, role models.Role) error {
	if u == nil {
		return NewForbiddenError(0, "authentication required")
	}
	if u.Role != role {
		return NewForbiddenError(u.ID, "operation requires role "+string(role))
	}
	return nil
}

// apply moves r through op and writes the audit row. The caller persists r.
func (s *Service) apply(ctx context.Context, st Store, actor *models.User, r *models.Request, op Operation) error {
	next, err := Next(r.ID, r.Status, op)
	if err != nil {
		return err
	}
	from := r.Status
	r.Status = next
	if from == next {
		return nil
	}
	return st.AppendEvent(ctx, &models.RequestEvent{
		RequestID:  r.ID,
		ActorID:    actor.ID,
		Operation:  string(op),
		FromStatus: from,
		ToStatus:   next,
		CreatedAt:  s.clock.Now(),
	})
}

func timePtr(t time.Time) *time.Time { return &t }
