package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// PushSender is the part of the Expo client the notifier uses.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
	PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error)
}

// TokenSource lists the Expo push tokens registered by a shopper.
type TokenSource interface {
	PushTokens(ctx context.Context, shopperID string) ([]string, error)
}
