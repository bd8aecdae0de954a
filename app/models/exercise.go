package models

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	ExerciseTypeCompletion     = "completion"
	ExerciseTypeOutput         = "output"
	ExerciseTypeMultipleChoice = "multiple_choice"
)

// Exercise is a single graded question inside a learning module. Premium
// exercises are only visible to users with an active subscription.
type Exercise struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Question       string `gorm:"type:text;not null" json:"question"`
	SampleCode     string `gorm:"type:text" json:"sample_code"`
	CorrectAnswer  string `gorm:"type:varchar(500);not null" json:"-"`
	Level          string `gorm:"type:varchar(50);not null" json:"level"`
	Theory         string `gorm:"type:text" json:"theory"`
	Premium        bool   `gorm:"default:false" json:"premium"`
	Type           string `gorm:"type:varchar(20);default:'completion'" json:"type"`
	OptionsJSON    string `gorm:"column:options;type:text" json:"-"`
	Module         string `gorm:"type:varchar(100);index" json:"module"`
	OrderInModule  int    `gorm:"default:0" json:"order_in_module"`
	FinalChallenge bool   `gorm:"default:false" json:"final_challenge"`
	Hint           string `gorm:"type:text" json:"hint,omitempty"`

	// Flushed periodically from Redis, see metrics/counter.
	AttemptCount int `gorm:"default:0" json:"attempt_count"`
	SolveCount   int `gorm:"default:0" json:"solve_count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Options decodes the multiple-choice options. An empty or broken payload
// yields no options rather than an error; choices are presentation data.
func (e *Exercise) Options() []string {
	if e.OptionsJSON == "" {
		return nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(e.OptionsJSON), &opts); err != nil {
		return nil
	}
	return opts
}

// CheckAnswer grades a submission. Comparison is trimmed and
// case-insensitive.
func (e *Exercise) CheckAnswer(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(e.CorrectAnswer))
}
