package repository

import (
	"gorm.io/gorm"

	"github.com/codigarte/codigarte/app/models"
)

// exerciseRepository implements the ExerciseRepository interface
type exerciseRepository struct {
	db *gorm.DB
}

// NewExerciseRepository creates a new exercise repository instance
func NewExerciseRepository(db *gorm.DB) ExerciseRepository {
	return &exerciseRepository{db: db}
}

// Create adds a new exercise to the catalog
func (r *exerciseRepository) Create(exercise *models.Exercise) error {
	return r.db.Create(exercise).Error
}

// GetByID retrieves an exercise by its ID
func (r *exerciseRepository) GetByID(id uint) (*models.Exercise, error) {
	var exercise models.Exercise
	err := r.db.First(&exercise, id).Error
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

// ListByModule returns a module's exercises in teaching order
func (r *exerciseRepository) ListByModule(module string) ([]models.Exercise, error) {
	var exercises []models.Exercise
	err := r.db.Where("module = ?", module).Order("order_in_module ASC, id ASC").Find(&exercises).Error
	return exercises, err
}

// ListModules returns the distinct module names in catalog order
func (r *exerciseRepository) ListModules() ([]string, error) {
	var modules []string
	err := r.db.Model(&models.Exercise{}).
		Distinct("module").
		Order("module ASC").
		Pluck("module", &modules).Error
	return modules, err
}

// CountByModule returns the number of exercises in a module
func (r *exerciseRepository) CountByModule(module string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Exercise{}).Where("module = ?", module).Count(&count).Error
	return count, err
}

// NextInModule returns the next exercise of a module after the given order,
// or gorm.ErrRecordNotFound when the module is finished.
func (r *exerciseRepository) NextInModule(module string, afterOrder int) (*models.Exercise, error) {
	var exercise models.Exercise
	err := r.db.Where("module = ? AND order_in_module > ?", module, afterOrder).
		Order("order_in_module ASC, id ASC").
		First(&exercise).Error
	if err != nil {
		return nil, err
	}
	return &exercise, nil
}

// Count returns the total number of exercises
func (r *exerciseRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Exercise{}).Count(&count).Error
	return count, err
}
