package models

import "time"

// CreditPackage представляет пакет кредитов на скачивание отчётов,
// который покупатель оплачивает через платёжный шлюз.
type CreditPackage struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreditAmount int       `json:"credit_amount"`
	PriceIDR     int64     `json:"price_idr"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DummyCreditPackage используется для приёма данных пакета из JSON-запроса.
type DummyCreditPackage struct {
	Name         string `json:"name" validate:"required,max=80"`
	CreditAmount int    `json:"credit_amount" validate:"required,gt=0"`
	PriceIDR     int64  `json:"price_idr" validate:"required,gt=0"`
	IsActive     *bool  `json:"is_active" validate:"required"`
}

// ReportDownload фиксирует списание кредита за скачивание отчёта по осмотру.
// Пара (user_uid, inspection_id) уникальна: повторное скачивание бесплатно.
type ReportDownload struct {
	ID           int64     `json:"id"`
	UserUID      string    `json:"user_uid"`
	InspectionID string    `json:"inspection_id"`
	DownloadedAt time.Time `json:"downloaded_at"`
}
