package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/relay"
)

type trainingRow struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Description *string    `db:"description"`
	CreatedBy   int64      `db:"created_by"`
	Target      int64      `db:"training_target"`
	ArchivedAt  *time.Time `db:"archived_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const trainingColumns = "id, name, description, created_by, training_target, archived_at, created_at, updated_at"

func mapTrainingRow(row trainingRow) domain.Training {
	return domain.Training{
		ID:          relay.EncodeID(relay.KindTraining, row.ID),
		Name:        row.Name,
		Description: row.Description,
		Target:      relay.EncodeID(relay.KindUser, row.Target),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// Trainings lists the workouts the caller assigned to one client. The client
// must be managed by the caller.
func (s *Store) Trainings(ctx context.Context, ownerID int64, targetID string) ([]domain.Training, error) {
	if err := requireOwner("trainings", ownerID); err != nil {
		return nil, err
	}
	if targetID == "" {
		return nil, domain.NewError("trainings", "trainings",
			fmt.Errorf("%w: target is required", domain.ErrInvalidArgument))
	}

	target, err := relay.DecodeID(relay.KindUser, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUserOwnership(ctx, target, ownerID); err != nil {
		return nil, err
	}

	query, args, err := builder().
		Select(trainingColumns).
		From("trainings").
		Where("created_by = ?", ownerID).
		Where("training_target = ?", target).
		Where("archived_at IS NULL").
		OrderBy("updated_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []trainingRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	trainings := make([]domain.Training, len(rows))
	for i, row := range rows {
		trainings[i] = mapTrainingRow(row)
	}
	return trainings, nil
}

// checkTrainingDuplication rejects a same-named training for the same client,
// ignoring archived rows and the row under edit.
func (s *Store) checkTrainingDuplication(ctx context.Context, q Querier, ownerID, target int64, name string, excludeID int64) error {
	b := builder().
		Select("id").
		From("trainings").
		Where("created_by = ?", ownerID).
		Where("training_target = ?", target).
		Where("name = ?", name).
		Where("archived_at IS NULL")
	if excludeID != 0 {
		b = b.Where("id <> ?", excludeID)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return err
	}

	var ids []int64
	if err := q.SelectContext(ctx, &ids, query, args...); err != nil {
		return err
	}
	if len(ids) > 0 {
		return domain.NewError("check_duplication", "trainings", domain.ErrConflict)
	}
	return nil
}

// CreateTraining assigns a workout to a client, writing the full exercise
// tree in one transaction. A photo can arrive either as a file upload or as a
// reference to an asset uploaded earlier (for trainings cloned from a
// template); either is applied after the commit and failures are logged, not
// surfaced.
func (s *Store) CreateTraining(ctx context.Context, ownerID int64, input domain.TrainingInput, file *domain.Upload) (domain.Training, error) {
	if err := requireOwner("create_training", ownerID); err != nil {
		return domain.Training{}, err
	}
	if input.Name == "" || input.TargetID == "" {
		return domain.Training{}, domain.NewError("create_training", "trainings",
			fmt.Errorf("%w: name and target are required", domain.ErrInvalidArgument))
	}

	target, err := relay.DecodeID(relay.KindUser, input.TargetID)
	if err != nil {
		return domain.Training{}, err
	}
	if err := s.checkUserOwnership(ctx, target, ownerID); err != nil {
		return domain.Training{}, err
	}

	plans, err := planWorkoutExercises("create_training", input.Exercises)
	if err != nil {
		return domain.Training{}, err
	}

	if err := s.checkTrainingDuplication(ctx, s.db, ownerID, target, input.Name, 0); err != nil {
		return domain.Training{}, err
	}

	var row trainingRow
	err = s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := builder().
			Insert("trainings").
			Columns("name", "description", "created_by", "training_target").
			Values(input.Name, nullableString(input.Description), ownerID, target).
			Suffix("RETURNING " + trainingColumns).
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return err
		}

		return s.insertWorkoutExercises(ctx, tx, trainingTables, row.ID, plans)
	})
	if err != nil {
		return domain.Training{}, err
	}

	switch {
	case file != nil:
		if err := s.attachUpload(ctx, "trainings", row.ID, file); err != nil {
			s.log.WithField("training", row.ID).Error("failed to attach training photo: %v", err)
		}
	case input.Photo != nil:
		if err := s.attachReference(ctx, "trainings", row.ID, *input.Photo); err != nil {
			s.log.WithField("training", row.ID).Error("failed to reference training photo: %v", err)
		}
	}

	return mapTrainingRow(row), nil
}

// EditTraining patches target values of an existing training in place. Unlike
// the template editor it never restructures the exercise tree; only rows
// identified by their raw id are updated, scoped to the training so a foreign
// row id cannot be reached.
func (s *Store) EditTraining(ctx context.Context, ownerID int64, input domain.EditTrainingInput) (domain.Training, error) {
	if err := requireOwner("edit_training", ownerID); err != nil {
		return domain.Training{}, err
	}
	if input.TrainingID == "" || len(input.Exercises) == 0 {
		return domain.Training{}, domain.NewError("edit_training", "trainings",
			fmt.Errorf("%w: training id and exercises are required", domain.ErrInvalidArgument))
	}

	id, err := relay.DecodeID(relay.KindTraining, input.TrainingID)
	if err != nil {
		return domain.Training{}, err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindTraining, id, ownerID); err != nil {
		return domain.Training{}, err
	}

	var row trainingRow
	err = s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		for _, ex := range input.Exercises {
			for _, set := range ex.Sets {
				for _, variable := range set.Variables {
					if variable.RowID == 0 {
						continue
					}

					query, args, err := builder().
						Update("training_exercise_set_variables").
						Set("target_value", variable.TargetValue).
						Where("id = ?", variable.RowID).
						Where("training_exercise_id IN (SELECT id FROM training_exercises WHERE training_id = ?)", id).
						ToSql()
					if err != nil {
						return err
					}
					if _, err := tx.ExecContext(ctx, query, args...); err != nil {
						return err
					}
				}
			}
		}

		query, args, err := builder().
			Select(trainingColumns).
			From("trainings").
			Where("id = ?", id).
			ToSql()
		if err != nil {
			return err
		}
		return tx.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		return domain.Training{}, err
	}

	return mapTrainingRow(row), nil
}

// DeleteTraining archives a training and discards its photo.
func (s *Store) DeleteTraining(ctx context.Context, ownerID int64, encodedID string) (string, error) {
	if err := requireOwner("delete_training", ownerID); err != nil {
		return "", err
	}

	id, err := relay.DecodeID(relay.KindTraining, encodedID)
	if err != nil {
		return "", err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindTraining, id, ownerID); err != nil {
		return "", err
	}

	if err := s.archive(ctx, s.db, "trainings", id); err != nil {
		return "", err
	}

	if err := s.removePhoto(ctx, "trainings", id); err != nil {
		s.log.WithField("training", id).Error("failed to remove training photo: %v", err)
	}

	return encodedID, nil
}

// TrainingPhoto resolves a training's photo, nil when none is attached.
func (s *Store) TrainingPhoto(ctx context.Context, encodedID string) (*domain.Photo, error) {
	id, err := relay.DecodeID(relay.KindTraining, encodedID)
	if err != nil {
		return nil, err
	}
	return s.photoFor(ctx, s.db, "trainings", id)
}

// TrainingExercises lists a training's exercise links in workout order.
func (s *Store) TrainingExercises(ctx context.Context, encodedID string) ([]domain.WorkoutExercise, error) {
	id, err := relay.DecodeID(relay.KindTraining, encodedID)
	if err != nil {
		return nil, err
	}
	return s.workoutExercises(ctx, trainingTables, id)
}

// TrainingExerciseDetail resolves the catalog exercise behind a link.
func (s *Store) TrainingExerciseDetail(ctx context.Context, encodedLinkID string) (domain.ExerciseDetail, error) {
	linkID, err := relay.DecodeID(relay.KindTrainingExercise, encodedLinkID)
	if err != nil {
		return domain.ExerciseDetail{}, err
	}
	return s.workoutExerciseDetail(ctx, trainingTables, linkID)
}

// TrainingExerciseSets returns a link's sets grouped by set number. Row ids
// are included so targets can be patched through EditTraining.
func (s *Store) TrainingExerciseSets(ctx context.Context, encodedLinkID string) ([]domain.Set, error) {
	linkID, err := relay.DecodeID(relay.KindTrainingExercise, encodedLinkID)
	if err != nil {
		return nil, err
	}
	return s.workoutSets(ctx, trainingTables, linkID)
}
