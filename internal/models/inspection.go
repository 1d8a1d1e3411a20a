package models

import (
	"encoding/json"
	"time"
)

// Статусы осмотра. Переходы: NEED_REVIEW -> APPROVED | REJECTED,
// APPROVED -> ARCHIVING, ARCHIVING -> ARCHIVED | FAIL_ARCHIVE.
const (
	StatusNeedReview  = "NEED_REVIEW"
	StatusApproved    = "APPROVED"
	StatusRejected    = "REJECTED"
	StatusArchiving   = "ARCHIVING"
	StatusArchived    = "ARCHIVED"
	StatusFailArchive = "FAIL_ARCHIVE"
)

// Inspection представляет запись осмотра автомобиля.
// Поле Summary хранит произвольный JSON с результатами по секциям осмотра.
type Inspection struct {
	ID            string          `json:"id"`
	PlateNumber   string          `json:"plate_number"`
	VehicleMake   string          `json:"vehicle_make"`
	VehicleModel  string          `json:"vehicle_model"`
	VehicleYear   int             `json:"vehicle_year"`
	OdometerKM    int             `json:"odometer_km"`
	OverallRating int             `json:"overall_rating"`
	Summary       json.RawMessage `json:"summary"`
	Status        string          `json:"status"`
	InspectorUID  string          `json:"inspector_uid"`
	ReviewerUID   *string         `json:"reviewer_uid,omitempty"`
	NFTTxHash     *string         `json:"nft_tx_hash,omitempty"`
	NFTAssetID    *string         `json:"nft_asset_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DummyInspection используется для приёма данных нового осмотра из JSON-запроса.
type DummyInspection struct {
	PlateNumber   string          `json:"plate_number" validate:"required,max=12"`
	VehicleMake   string          `json:"vehicle_make" validate:"required,max=60"`
	VehicleModel  string          `json:"vehicle_model" validate:"required,max=60"`
	VehicleYear   int             `json:"vehicle_year" validate:"required,gte=1950,lte=2100"`
	OdometerKM    int             `json:"odometer_km" validate:"gte=0"`
	OverallRating int             `json:"overall_rating" validate:"required,gte=0,lte=10"`
	Summary       json.RawMessage `json:"summary" validate:"required"`
}

// DummyReview используется для приёма решения ревьюера.
type DummyReview struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// ChangelogEntry представляет одну зафиксированную правку поля осмотра.
type ChangelogEntry struct {
	ID           int64     `json:"id"`
	InspectionID string    `json:"inspection_id"`
	FieldName    string    `json:"field_name"`
	OldValue     string    `json:"old_value"`
	NewValue     string    `json:"new_value"`
	ChangedBy    string    `json:"changed_by"`
	ChangedAt    time.Time `json:"changed_at"`
}

// MintJob сообщение очереди минтинга: осмотр, который нужно записать в блокчейн.
type MintJob struct {
	InspectionID string `json:"inspection_id"`
}

// PublicInspection урезанное представление осмотра для публичного API.
type PublicInspection struct {
	ID            string    `json:"id"`
	PlateNumber   string    `json:"plate_number"`
	VehicleMake   string    `json:"vehicle_make"`
	VehicleModel  string    `json:"vehicle_model"`
	VehicleYear   int       `json:"vehicle_year"`
	OverallRating int       `json:"overall_rating"`
	NFTTxHash     *string   `json:"nft_tx_hash,omitempty"`
	NFTAssetID    *string   `json:"nft_asset_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
