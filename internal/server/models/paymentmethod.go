package models

import "time"

// PaymentKind discriminates the payment-method union. Each kind uses a
// fixed subset of the sensitive fields below; handlers over kinds are
// required to be exhaustive (see services.sensitiveFields).
type PaymentKind string

const (
	PaymentKindCard   PaymentKind = "card"
	PaymentKindIBAN   PaymentKind = "iban"
	PaymentKindWallet PaymentKind = "wallet"
)

// PaymentMethod stores one payment instrument. Sensitive fields (Number,
// CVV, IBAN, Email, Phone, Holder) are encrypted by the field cipher
// before they reach the repository and decrypted after they are read back.
type PaymentMethod struct {
	ID        string
	AccountID string
	Kind      PaymentKind
	Label     string

	Holder string
	Number string
	CVV    string
	IBAN   string
	Email  string
	Phone  string

	CreatedAt time.Time
}
