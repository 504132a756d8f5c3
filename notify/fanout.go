package notify

import (
	"context"

	"material_lending/lending"

	"go.uber.org/multierr"
)

// Fanout hands every notification to all notifiers and combines their failures.
type Fanout []lending.Notifier

func (f Fanout) OrderPlaced(ctx context.Context, op lending.OrderPlaced) error {
	var err error
	for _, n := range f {
		err = multierr.Append(err, n.OrderPlaced(ctx, op))
	}
	return err
}
