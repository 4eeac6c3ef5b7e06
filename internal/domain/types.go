package domain

import "time"

// API-facing entity shapes. Identifiers are opaque encoded IDs (see
// internal/relay); numeric row ids never leave the storage layer, with the
// one exception of set-variable row ids, which the training editor patches
// by row.

// Category is a taxonomy node. Nesting is one level deep in practice.
type Category struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	ParentCategory *string    `json:"parentCategory,omitempty"`
	Subcategories  []Category `json:"subcategories"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Exercise is a catalog entry owned by a trainer.
type Exercise struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Category     string    `json:"category"`
	CategoryName string    `json:"categoryName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Variable is a measurable quantity attached to sets (reps, weight kg, ...).
type Variable struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Template is a reusable workout blueprint.
type Template struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Training is a workout assigned to a client.
type Training struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Target      string    `json:"target"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WorkoutExercise is one ordered exercise link inside a template or training.
type WorkoutExercise struct {
	ID            string `json:"id"`
	OrderPosition int    `json:"orderPosition"`
}

// ExerciseDetail is the catalog row behind a workout exercise. Fields are
// pointers because the catalog row may have been archived or removed; the
// reader surfaces the nulls rather than failing.
type ExerciseDetail struct {
	ID       string  `json:"id"`
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	Category *string `json:"category"`
}

// VariableRef describes the variable attached to a set entry.
type VariableRef struct {
	ID          string  `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Unit        *string `json:"unit"`
}

// SetVariable is one variable/target pair within a set. RowID is the raw
// set-variable row id; trainings expose it so targets can be patched in place.
type SetVariable struct {
	RowID       int64       `json:"rowId,omitempty"`
	Variable    VariableRef `json:"variable"`
	TargetValue *string     `json:"targetValue"`
}

// Set groups the variables recorded for one set number.
type Set struct {
	SetNumber int           `json:"setNumber"`
	Variables []SetVariable `json:"variables"`
}

// Photo references a stored media asset.
type Photo struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// User is a managed client ("aluno") account.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Status        string     `json:"status"`
	DeactivatedAt *time.Time `json:"deactivatedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// UserDetails is the per-client biometric profile.
type UserDetails struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	Birthday       *time.Time `json:"birthday,omitempty"`
	Height         *float64   `json:"height,omitempty"`
	Weight         *float64   `json:"weight,omitempty"`
	Sex            *string    `json:"sex,omitempty"`
	PhotographyURL *string    `json:"photographyUrl,omitempty"`
	PhotographyKey *string    `json:"photographyKey,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Result is returned by void mutations.
type Result struct {
	Success bool `json:"success"`
}

// User account statuses.
const (
	StatusPending     = "pending"
	StatusActive      = "active"
	StatusDeactivated = "deactivated"
	StatusArchived    = "archived"
)
