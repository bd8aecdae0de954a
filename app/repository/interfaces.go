package repository

import (
	"gorm.io/gorm"

	"github.com/codigarte/codigarte/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByName(name string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// ExerciseRepository defines the interface for exercise catalog operations
type ExerciseRepository interface {
	Create(exercise *models.Exercise) error
	GetByID(id uint) (*models.Exercise, error)
	ListByModule(module string) ([]models.Exercise, error)
	ListModules() ([]string, error)
	CountByModule(module string) (int64, error)
	NextInModule(module string, afterOrder int) (*models.Exercise, error)
	Count() (int64, error)
}

// ProgressRepository defines the interface for per-user learning progress
type ProgressRepository interface {
	GetByUserAndExercise(userID, exerciseID uint) (*models.Progress, error)
	Save(progress *models.Progress) error
	CompletedExerciseIDs(userID uint) (map[uint]bool, error)
	CountCompletedInModule(userID uint, module string) (int64, error)
	MarkModuleCompleted(userID uint, module string) error
	IsModuleCompleted(userID uint, module string) (bool, error)
	ListCompletedModules(userID uint) ([]string, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User     UserRepository
	Exercise ExerciseRepository
	Progress ProgressRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Exercise: NewExerciseRepository(db),
		Progress: NewProgressRepository(db),
	}
}
