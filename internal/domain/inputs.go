package domain

import (
	"io"
	"time"
)

// Mutation inputs. IDs referencing other entities arrive in encoded form and
// are decoded at the storage boundary.

type CategoryInput struct {
	ID             string
	Name           string
	ParentCategory string
}

type ExerciseInput struct {
	ID       string
	Name     string
	Category string
	URL      string
}

type VariableInput struct {
	ID          string
	Name        string
	Unit        string
	Description string
}

// SetVariableInput names a variable and its optional target. RowID is only
// consulted when patching an existing training.
type SetVariableInput struct {
	RowID       int64
	VariableID  string
	TargetValue *string
}

type SetInput struct {
	SetNumber int
	Variables []SetVariableInput
}

// WorkoutExerciseInput is one ordered exercise of a composite write.
// OrderPosition is caller-supplied and not renumbered or validated for
// contiguity.
type WorkoutExerciseInput struct {
	ExerciseID    string
	OrderPosition int
	Sets          []SetInput
}

type TemplateInput struct {
	ID          string
	Name        string
	Description string
	Exercises   []WorkoutExerciseInput
}

type PhotoInput struct {
	URL string
	Key string
}

type TrainingInput struct {
	TargetID    string
	Name        string
	Description string
	Photo       *PhotoInput
	Exercises   []WorkoutExerciseInput
}

type EditTrainingInput struct {
	TrainingID string
	Exercises  []WorkoutExerciseInput
}

type UserInput struct {
	ID    string
	Name  string
	Email string
}

type UserFilter struct {
	Status string
	Search string
}

type UserDetailsInput struct {
	Birthday *time.Time
	Height   *float64
	Weight   *float64
	Sex      *string
}

// Upload is a file payload handed to the media store.
type Upload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}
