package models

import "time"

// Progress records that a user solved an exercise. One row per user/exercise
// pair; Attempts counts every submission including the solving one.
type Progress struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:ux_progress_user_exercise,priority:1" json:"user_id"`
	ExerciseID  uint      `gorm:"not null;uniqueIndex:ux_progress_user_exercise,priority:2" json:"exercise_id"`
	Attempts    int       `gorm:"default:1" json:"attempts"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completed_at"`
}

// CompletedModule marks a module as finished, which happens when the user
// solves its final challenge.
type CompletedModule struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;uniqueIndex:ux_completed_module_user,priority:1" json:"user_id"`
	Module      string    `gorm:"type:varchar(100);not null;uniqueIndex:ux_completed_module_user,priority:2" json:"module"`
	CompletedAt time.Time `gorm:"autoCreateTime" json:"completed_at"`
}
