package media

import "time"

// MediaRecord is the stored metadata for one uploaded image. Records are
// write-once: every field is set at creation and never mutated. JSON field
// names are part of the wire contract.
type MediaRecord struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	UploadTimestamp  time.Time `json:"uploadTimestamp"`
	MimeType         string    `json:"mimeType"`
	Width            *int      `json:"width,omitempty"`
	Height           *int      `json:"height,omitempty"`
	OriginalURL      string    `json:"originalUrl"`
	ThumbnailURL     string    `json:"thumbnailUrl"`
}

// Upload is the validated payload handed to the ingestion pipeline.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}
