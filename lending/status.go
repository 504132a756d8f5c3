package lending

import "material_lending/models"

// Operation is a lifecycle operation on a Request.
type Operation string

const (
	OpCreateDraft Operation = "create_draft"
	OpAddItem     Operation = "add_item"
	OpRemoveItem  Operation = "remove_item"
	OpPlaceOrder  Operation = "place_order"
	OpConfirm     Operation = "confirm_and_reserve"
	OpReturn      Operation = "mark_as_returned"
	OpCancel      Operation = "cancel"
)

type transition struct {
	from []models.Status
	to   models.Status
}

// transitions is the whole state machine. Item edits keep the request in draft.
var transitions = map[Operation]transition{
	OpAddItem:    {from: []models.Status{models.StatusDraft}, to: models.StatusDraft},
	OpRemoveItem: {from: []models.Status{models.StatusDraft}, to: models.StatusDraft},
	OpPlaceOrder: {from: []models.Status{models.StatusDraft}, to: models.StatusPending},
	OpConfirm:    {from: []models.Status{models.StatusPending}, to: models.StatusReserved},
	OpReturn:     {from: []models.Status{models.StatusReserved}, to: models.StatusReturned},
	OpCancel:     {from: []models.Status{models.StatusDraft, models.StatusPending}, to: models.StatusCancelled},
}

// Next returns the status a request in current moves to under op.
func Next(requestID uint, current models.Status, op Operation) (models.Status, error) {
	t, ok := transitions[op]
	if !ok {
		return current, &TransitionError{RequestID: requestID, Operation: op, Actual: current}
	}
	for _, s := range t.from {
		if s == current {
			return t.to, nil
		}
	}
	return current, &TransitionError{RequestID: requestID, Operation: op, Expected: t.from, Actual: current}
}

// Allowed lists the operations valid from s, in a stable order.
func Allowed(s models.Status) []Operation {
	var ops []Operation
	for _, op := range []Operation{OpAddItem, OpRemoveItem, OpPlaceOrder, OpConfirm, OpReturn, OpCancel} {
		if _, err := Next(0, s, op); err == nil {
			ops = append(ops, op)
		}
	}
	return ops
}
