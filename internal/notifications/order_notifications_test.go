package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/9ssi7/exponent"
	"go.uber.org/zap"
)

type fakePush struct {
	msgs []*exponent.Message
	err  error
}

func (f *fakePush) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	f.msgs = append(f.msgs, msgs...)
	return nil, f.err
}

func (f *fakePush) PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	return f.Publish(ctx, []*exponent.Message{msg})
}

type fakeTokens map[string][]string

func (f fakeTokens) PushTokens(_ context.Context, id string) ([]string, error) {
	return f[id], nil
}

type sentMail struct {
	template, name, email string
	data                  any
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(templateFile, username, email string, data any) (int, error) {
	f.sent = append(f.sent, sentMail{templateFile, username, email, data})
	if f.err != nil {
		return -1, f.err
	}
	return 200, nil
}

var placed = OrderPlaced{
	ShopperID:        "shopper-1",
	Name:             "Asha",
	Email:            "asha@example.com",
	OrderID:          77,
	OrderNumber:      "CC-0077",
	ConfirmationCode: "K3XQ9",
	TotalPaise:       240_00,
}

func TestOrderPlaced_PushAndEmail(t *testing.T) {
	push := &fakePush{}
	mail := &fakeMailer{}
	n := NewNotifier(push, fakeTokens{"shopper-1": {"ExponentPushToken[a]", "ExponentPushToken[b]"}}, mail, zap.NewNop().Sugar())

	n.OrderPlaced(context.Background(), placed)

	if len(push.msgs) != 2 {
		t.Fatalf("push messages = %d", len(push.msgs))
	}
	if push.msgs[0].Data["orderId"] != "77" {
		t.Errorf("data = %v", push.msgs[0].Data)
	}
	if len(mail.sent) != 1 || mail.sent[0].email != "asha@example.com" {
		t.Errorf("mail = %+v", mail.sent)
	}
}

func TestOrderPlaced_FailuresAreSwallowed(t *testing.T) {
	push := &fakePush{err: errors.New("expo down")}
	mail := &fakeMailer{err: errors.New("smtp down")}
	n := NewNotifier(push, fakeTokens{"shopper-1": {"ExponentPushToken[a]"}}, mail, zap.NewNop().Sugar())

	n.OrderPlaced(context.Background(), placed)

	if len(push.msgs) != 1 || len(mail.sent) != 1 {
		t.Errorf("both channels should have been attempted")
	}
}

func TestOrderPlaced_SkipsMissingChannels(t *testing.T) {
	push := &fakePush{}
	n := NewNotifier(push, fakeTokens{}, nil, zap.NewNop().Sugar())

	ev := placed
	ev.Email = ""
	n.OrderPlaced(context.Background(), ev)

	if len(push.msgs) != 0 {
		t.Errorf("pushed without tokens")
	}
}

func TestFormatRupees(t *testing.T) {
	tests := map[int64]string{0: "₹0.00", 240_00: "₹240.00", 5: "₹0.05", 123_45: "₹123.45"}
	for in, want := range tests {
		if got := FormatRupees(in); got != want {
			t.Errorf("FormatRupees(%d) = %q, want %q", in, got, want)
		}
	}
}
