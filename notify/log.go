package notify

import (
	"context"

	"material_lending/lending"

	"go.uber.org/zap"
)

// LogNotifier writes the notification to the log. Used when no queue or SMTP is configured.
type LogNotifier struct{ log *zap.Logger }

func NewLogNotifier(log *zap.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) OrderPlaced(ctx context.Context, op lending.OrderPlaced) error {
	msg := NewMessage(op)
	n.log.Info("order placed notification",
		zap.Uint("request_id", msg.RequestID),
		zap.String("reference", msg.Reference),
		zap.String("student", msg.Student),
		zap.Int("lines", len(msg.Items)),
		zap.Int("units", msg.TotalQuantity()),
		zap.Strings("recipients", msg.Recipients),
	)
	return nil
}
