package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/codigarte/codigarte/app/models"
)

// progressRepository implements the ProgressRepository interface
type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository creates a new progress repository instance
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

// GetByUserAndExercise retrieves a user's progress record for one exercise
func (r *progressRepository) GetByUserAndExercise(userID, exerciseID uint) (*models.Progress, error) {
	var progress models.Progress
	err := r.db.Where("user_id = ? AND exercise_id = ?", userID, exerciseID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

// Save creates or updates a progress record
func (r *progressRepository) Save(progress *models.Progress) error {
	return r.db.Save(progress).Error
}

// CompletedExerciseIDs returns the set of exercise ids the user solved
func (r *progressRepository) CompletedExerciseIDs(userID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.db.Model(&models.Progress{}).
		Where("user_id = ?", userID).
		Pluck("exercise_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// CountCompletedInModule counts the user's solved exercises inside a module
func (r *progressRepository) CountCompletedInModule(userID uint, module string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Progress{}).
		Joins("JOIN exercises ON exercises.id = progresses.exercise_id").
		Where("progresses.user_id = ? AND exercises.module = ?", userID, module).
		Count(&count).Error
	return count, err
}

// MarkModuleCompleted records a finished module; marking twice is a no-op
func (r *progressRepository) MarkModuleCompleted(userID uint, module string) error {
	done, err := r.IsModuleCompleted(userID, module)
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	return r.db.Create(&models.CompletedModule{UserID: userID, Module: module}).Error
}

// IsModuleCompleted reports whether the user finished the module
func (r *progressRepository) IsModuleCompleted(userID uint, module string) (bool, error) {
	var record models.CompletedModule
	err := r.db.Where("user_id = ? AND module = ?", userID, module).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListCompletedModules returns the modules the user finished
func (r *progressRepository) ListCompletedModules(userID uint) ([]string, error) {
	var modules []string
	err := r.db.Model(&models.CompletedModule{}).
		Where("user_id = ?", userID).
		Pluck("module", &modules).Error
	return modules, err
}
