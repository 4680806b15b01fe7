package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

type ExpoAdapter struct {
	client *exponent.Client
}

func NewExpoAdapter(c *exponent.Client) *ExpoAdapter {
	return &ExpoAdapter{client: c}
}

// NewExpoAdapterWithToken builds the Expo client; the access token is
// optional unless enhanced push security is enabled for the project.
func NewExpoAdapterWithToken(accessToken string) *ExpoAdapter {
	if accessToken == "" {
		return NewExpoAdapter(exponent.NewClient())
	}
	return NewExpoAdapter(exponent.NewClient(exponent.WithAccessToken(accessToken)))
}

func (a *ExpoAdapter) Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	return a.client.Publish(ctx, msgs)
}

func (a *ExpoAdapter) PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	return a.client.PublishSingle(ctx, msg)
}
