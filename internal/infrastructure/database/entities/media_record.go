package entities

import "time"

// MediaRecord is the persisted media metadata row.
type MediaRecord struct {
	ID               string `gorm:"type:varchar(40);primaryKey"`
	OriginalFilename string `gorm:"type:varchar(255);not null"`
	UploadTimestamp  time.Time
	MimeType         string `gorm:"type:varchar(64);not null"`
	Width            *int
	Height           *int
	OriginalURL      string `gorm:"type:varchar(512);not null"`
	ThumbnailURL     string `gorm:"type:varchar(512);not null"`
}

func (MediaRecord) TableName() string {
	return "media_records"
}
