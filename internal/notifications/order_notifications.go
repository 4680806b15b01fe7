package notifications

import (
	"context"
	"errors"
	"fmt"

	"carecart/internal/mailer"

	"github.com/9ssi7/exponent"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrNoPushTokens = errors.New("no push tokens")

// OrderPlaced describes a successfully submitted order.
type OrderPlaced struct {
	ShopperID        string
	Name             string
	Email            string
	OrderID          int64
	OrderNumber      string
	ConfirmationCode string
	TotalPaise       int64
}

// Notifier tells the shopper that an order went through, by push and by
// email. Delivery is best effort: failures are logged and never affect the
// order.
type Notifier struct {
	push   PushSender
	tokens TokenSource
	mail   mailer.Client
	logger *zap.SugaredLogger
}

func NewNotifier(push PushSender, tokens TokenSource, mail mailer.Client, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{push: push, tokens: tokens, mail: mail, logger: logger}
}

func (n *Notifier) OrderPlaced(ctx context.Context, ev OrderPlaced) {
	if n.push != nil && n.tokens != nil {
		if err := n.sendPush(ctx, ev); err != nil && !errors.Is(err, ErrNoPushTokens) {
			n.logger.Warnw("order push failed", "shopper_id", ev.ShopperID, "order_id", ev.OrderID, "error", err)
		}
	}

	if n.mail != nil && ev.Email != "" {
		data := struct {
			Name, OrderNumber, ConfirmationCode, Total string
		}{
			Name:             ev.Name,
			OrderNumber:      ev.OrderNumber,
			ConfirmationCode: ev.ConfirmationCode,
			Total:            FormatRupees(ev.TotalPaise),
		}
		if data.Name == "" {
			data.Name = "there"
		}
		if _, err := n.mail.Send(mailer.OrderPlacedTemplate, data.Name, ev.Email, data); err != nil {
			n.logger.Warnw("order email failed", "shopper_id", ev.ShopperID, "order_id", ev.OrderID, "error", err)
		}
	}
}

func (n *Notifier) sendPush(ctx context.Context, ev OrderPlaced) error {
	tokens, err := n.tokens.PushTokens(ctx, ev.ShopperID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return ErrNoPushTokens
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: "Order placed",
			Body:  fmt.Sprintf("Your order %s is confirmed.", ev.OrderNumber),
			// opened by the app router on tap
			Data: map[string]string{
				"type":             "order",
				"orderId":          fmt.Sprint(ev.OrderID),
				"confirmationCode": ev.ConfirmationCode,
				"screen":           "order-confirmation",
			},
		})
	}

	_, err = n.push.Publish(ctx, msgs)
	return err
}

// FormatRupees renders paise as a rupee amount, e.g. 24000 -> "₹240.00".
func FormatRupees(paise int64) string {
	return "₹" + decimal.New(paise, -2).StringFixed(2)
}
