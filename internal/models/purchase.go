package models

import "time"

// Статусы покупки пакета кредитов.
const (
	PurchasePending = "PENDING"
	PurchasePaid    = "PAID"
	PurchaseExpired = "EXPIRED"
)

// Purchase представляет покупку пакета кредитов через Xendit.
// ExternalID — идентификатор, под которым счёт известен платёжному шлюзу.
type Purchase struct {
	ID           string     `json:"id"`
	ExternalID   string     `json:"external_id"`
	UserUID      string     `json:"user_uid"`
	PackageID    string     `json:"package_id"`
	CreditAmount int        `json:"credit_amount"`
	PriceIDR     int64      `json:"price_idr"`
	Status       string     `json:"status"`
	InvoiceURL   string     `json:"invoice_url"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// DummyCheckout используется для приёма запроса на покупку пакета.
type DummyCheckout struct {
	PackageID string `json:"package_id" validate:"required,uuid"`
}
