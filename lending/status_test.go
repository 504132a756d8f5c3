package lending

import (
	"errors"
	"testing"

	"material_lending/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_ValidTransitions(t *testing.T) {
	cases := []struct {
		from models.Status
		op   Operation
		to   models.Status
	}{
		{models.StatusDraft, OpAddItem, models.StatusDraft},
		{models.StatusDraft, OpRemoveItem, models.StatusDraft},
		{models.StatusDraft, OpPlaceOrder, models.StatusPending},
		{models.StatusPending, OpConfirm, models.StatusReserved},
		{models.StatusReserved, OpReturn, models.StatusReturned},
		{models.StatusDraft, OpCancel, models.StatusCancelled},
		{models.StatusPending, OpCancel, models.StatusCancelled},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.op), func(t *testing.T) {
			got, err := Next(1, tc.from, tc.op)
			require.NoError(t, err)
			assert.Equal(t, tc.to, got)
		})
	}
}

func TestNext_ConfirmOnlyFromPending(t *testing.T) {
	for _, st := range []models.Status{models.StatusDraft, models.StatusReserved, models.StatusReturned, models.StatusCancelled} {
		t.Run(string(st), func(t *testing.T) {
			got, err := Next(42, st, OpConfirm)
			require.Error(t, err)
			assert.Equal(t, st, got)
			assert.True(t, errors.Is(err, ErrInvalidTransition))

			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, uint(42), te.RequestID)
			assert.Equal(t, []models.Status{models.StatusPending}, te.Expected)
			assert.Equal(t, st, te.Actual)
			assert.Equal(t, KindInvalidTransition, KindOf(err))
		})
	}
}

func TestNext_TerminalStatesAcceptNothing(t *testing.T) {
	for _, st := range models.Statuses {
		if !st.Terminal() {
			continue
		}
		assert.Empty(t, Allowed(st), st)
	}
}

func TestNext_UnknownOperation(t *testing.T) {
	_, err := Next(1, models.StatusDraft, Operation("teleport"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAllowed(t *testing.T) {
	assert.Equal(t, []Operation{OpAddItem, OpRemoveItem, OpPlaceOrder, OpCancel}, Allowed(models.StatusDraft))
	assert.Equal(t, []Operation{OpConfirm, OpCancel}, Allowed(models.StatusPending))
	assert.Equal(t, []Operation{OpReturn}, Allowed(models.StatusReserved))
}

func TestTransitionError_Message(t *testing.T) {
	_, err := Next(9, models.StatusReserved, OpCancel)
	assert.EqualError(t, err, "invalid_state_transition: request 9: cancel requires status draft or pending, got reserved")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NewNotFoundError("material", 3)))
	assert.Equal(t, KindInsufficientStock, KindOf(NewInsufficientStockError(&models.Material{ID: 1, Name: "Tripod"}, 3, 2)))
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.True(t, errors.Is(NewEmptyCartError(1), ErrEmptyCart))
	assert.False(t, errors.Is(NewEmptyCartError(1), ErrNotFound))
	assert.EqualError(t, NewInsufficientStockError(&models.Material{ID: 1, Name: "Tripod"}, 3, 2),
		`insufficient_stock: material 1: insufficient stock for material "Tripod": requested 3, available 2`)
}
