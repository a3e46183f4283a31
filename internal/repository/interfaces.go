package repository

import (
	"binsorter/internal/dto"
	"binsorter/internal/model"
)

// ClassificationRepository defines the interface for classification history operations.
type ClassificationRepository interface {
	// Create operations
	Insert(c *model.Classification) (int64, error)

	// Read operations
	GetByFilename(filename string) (*model.Classification, error)
	GetAll(filter *dto.HistoryFilters) ([]model.Classification, error)
	GetTotalCount(filter *dto.HistoryFilters) (int, error)
	GetTotalSize() (int64, error)
	GetStats() (*model.HistoryStats, error)

	// Delete operations
	Delete(id int64) error
	DeleteAll() error
}

// DetectionRepository defines the interface for detection data operations.
type DetectionRepository interface {
	// Create operations
	InsertBatch(detections []model.Detection) error

	// Read operations
	GetByClassificationID(classificationID int64) ([]model.Detection, error)
	GetAllLabels() ([]string, error)
}
