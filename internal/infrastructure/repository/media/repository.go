package media

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "media-server/internal/domain/media"
	"media-server/internal/infrastructure/database/entities"
	"media-server/internal/utils/platformerrors"
	"media-server/utils/mediaid"
)

// Repository handles media record persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert persists a new record. The id and upload timestamp are assigned
// here; caller-supplied values for either are discarded.
func (r *Repository) Insert(ctx context.Context, record *domain.MediaRecord) (*domain.MediaRecord, error) {
	entity := entities.MediaRecord{
		ID:               mediaid.New(),
		OriginalFilename: record.OriginalFilename,
		UploadTimestamp:  time.Now().UTC(),
		MimeType:         record.MimeType,
		Width:            record.Width,
		Height:           record.Height,
		OriginalURL:      record.OriginalURL,
		ThumbnailURL:     record.ThumbnailURL,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to create media record",
			err,
			"9b2e4f5a-6c7d-4e8f-9a0b-1c2d3e4f5a6b",
		)
	}
	stored := mapEntity(entity)
	return &stored, nil
}

// FindByID returns the record for id. A syntactically invalid id is rejected
// without touching the store; it carries its own error instance but maps to
// the same not-found class as an unknown id.
func (r *Repository) FindByID(ctx context.Context, id string) (*domain.MediaRecord, error) {
	if !mediaid.IsValid(id) {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"Media not found.",
			nil,
			"4f8c2d6e-1a3b-4c5d-9e7f-2b6a0d4c8e1f",
		)
	}

	var entity entities.MediaRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				"Media not found.",
				err,
				"1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get media by id",
			err,
			"2d3e4f5a-6b7c-4d8e-9f0a-1b2c3d4e5f6a",
		)
	}
	record := mapEntity(entity)
	return &record, nil
}

// FindAll returns every record ordered by upload time then id.
func (r *Repository) FindAll(ctx context.Context) ([]domain.MediaRecord, error) {
	var rows []entities.MediaRecord
	err := r.db.WithContext(ctx).Order("upload_timestamp ASC, id ASC").Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list media records",
			err,
			"7a8f3d2e-4b1c-4a9e-8f7d-2c3e4f5a6b7c",
		)
	}
	records := make([]domain.MediaRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapEntity(row))
	}
	return records, nil
}

func mapEntity(entity entities.MediaRecord) domain.MediaRecord {
	return domain.MediaRecord{
		ID:               entity.ID,
		OriginalFilename: entity.OriginalFilename,
		UploadTimestamp:  entity.UploadTimestamp,
		MimeType:         entity.MimeType,
		Width:            entity.Width,
		Height:           entity.Height,
		OriginalURL:      entity.OriginalURL,
		ThumbnailURL:     entity.ThumbnailURL,
	}
}
