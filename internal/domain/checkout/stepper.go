package checkout

// Step is one stage of the checkout stepper.
type Step int

const (
	StepAddress Step = iota + 1
	StepDelivery
	StepPayment
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepAddress:
		return "address"
	case StepDelivery:
		return "delivery"
	case StepPayment:
		return "payment"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

func (s Step) Valid() bool {
	return s >= StepAddress && s <= StepReview
}

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentUPI            PaymentMethod = "upi"
	PaymentCard           PaymentMethod = "card"
	PaymentNetBanking     PaymentMethod = "net_banking"
	PaymentWallet         PaymentMethod = "wallet"
)

// PaymentMethods is the static set of supported methods, in display order.
var PaymentMethods = []PaymentMethod{
	PaymentCashOnDelivery,
	PaymentUPI,
	PaymentCard,
	PaymentNetBanking,
	PaymentWallet,
}

func (m PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// State is the data collected by one checkout session.
type State struct {
	CurrentStep         Step          `json:"current_step"`
	SelectedAddressID   string        `json:"selected_address_id,omitempty"`
	SelectedSlot        *Slot         `json:"selected_delivery_slot,omitempty"`
	SelectedPayment     PaymentMethod `json:"selected_payment_method,omitempty"`
	CouponCode          string        `json:"coupon_code,omitempty"`
	CouponDiscountPaise int64         `json:"coupon_discount_paise"`
	Notes               string        `json:"notes,omitempty"`
	TermsAccepted       bool          `json:"terms_accepted"`
}

func NewState() State {
	return State{CurrentStep: StepAddress}
}

// CanAdvance reports whether the guard of the current step holds. At Review
// the guard is the submission guard.
func CanAdvance(s State) bool {
	switch s.CurrentStep {
	case StepAddress:
		return s.SelectedAddressID != ""
	case StepDelivery:
		return true
	case StepPayment:
		return s.SelectedPayment != ""
	case StepReview:
		return s.SelectedAddressID != "" && s.SelectedPayment != "" && s.TermsAccepted
	default:
		return false
	}
}

// Advance moves to the next step when the current guard holds. The state is
// returned unchanged with an error otherwise.
func Advance(s State) (State, error) {
	if s.CurrentStep == StepReview {
		return s, ErrFinalStep
	}
	if !CanAdvance(s) {
		return s, ErrStepIncomplete
	}
	s.CurrentStep++
	return s, nil
}

// Back retreats one step. It never fails; Address is the floor.
func Back(s State) State {
	if s.CurrentStep > StepAddress {
		s.CurrentStep--
	}
	if !s.CurrentStep.Valid() {
		s.CurrentStep = StepAddress
	}
	return s
}
