package enum

// PaymentMethod is how a payment is settled.
type PaymentMethod string

const (
	PaymentMethodVipBalance PaymentMethod = "vip_balance"
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
)

func (m PaymentMethod) String() string {
	return string(m)
}

// Valid reports whether the value is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodVipBalance, PaymentMethodCash, PaymentMethodCreditCard:
		return true
	}
	return false
}
