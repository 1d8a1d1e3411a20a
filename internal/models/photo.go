package models

import "time"

// Photo представляет фотографию, прикреплённую к осмотру и загруженную в Backblaze B2.
type Photo struct {
	ID           string    `json:"id"`
	InspectionID string    `json:"inspection_id"`
	ObjectKey    string    `json:"object_key"`
	FileID       string    `json:"-"`
	URL          string    `json:"url"`
	Caption      string    `json:"caption"`
	UploadedBy   string    `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}
