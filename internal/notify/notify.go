package notify

import (
	"context"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier delivers a message to a buyer or seller. Delivery itself (mail,
// push) happens downstream of the implementation.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier only logs messages. It is used when no broker is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, msg Message) error {
	logger.FromCtx(ctx).Info("notification",
		zap.String("layer", "notify"),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}
