package repository

import (
	"sketchserver/internal/dto"
	"sketchserver/internal/model"
)

// SketchRepository defines the interface for sketch data operations.
type SketchRepository interface {
	// Create operations
	Insert(s *model.Sketch) (int64, error)

	// Read operations
	GetByID(id int64) (*model.Sketch, error)
	GetByFilename(filename string) (*model.Sketch, error)
	GetAll(filter *dto.SketchFilters) ([]model.Sketch, error)
	GetTotalCount(filter *dto.SketchFilters) (int, error)
	GetTotalSize() (int64, error)
	GetStats() (*model.SketchStats, error)

	// Delete operations
	DeleteByFilename(filename string) error
	DeleteAll() error
}
