package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/relay"
)

type templateRow struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Description *string    `db:"description"`
	CreatedBy   int64      `db:"created_by"`
	ArchivedAt  *time.Time `db:"archived_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const templateColumns = "id, name, description, created_by, archived_at, created_at, updated_at"

func mapTemplateRow(row templateRow) domain.Template {
	return domain.Template{
		ID:          relay.EncodeID(relay.KindTemplate, row.ID),
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// Templates lists the caller's workout blueprints as a forward-only
// connection.
func (s *Store) Templates(ctx context.Context, ownerID int64, page relay.PageArgs) (relay.Connection[domain.Template], error) {
	var zero relay.Connection[domain.Template]

	if err := requireOwner("templates", ownerID); err != nil {
		return zero, err
	}

	b := builder().
		Select(templateColumns).
		From("templates").
		Where("created_by = ?", ownerID).
		Where("archived_at IS NULL")

	if term := trimSearch(page.Search); term != "" {
		b = b.Where("name ILIKE ?", "%"+term+"%")
	}

	b, err := relay.Window(b, "id", page)
	if err != nil {
		return zero, err
	}

	query, args, err := b.ToSql()
	if err != nil {
		return zero, err
	}

	var rows []templateRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return zero, err
	}

	nodes := make([]domain.Template, len(rows))
	ids := make([]int64, len(rows))
	for i, row := range rows {
		nodes[i] = mapTemplateRow(row)
		ids[i] = row.ID
	}

	return relay.Connect(nodes, ids, page.Limit()), nil
}

func (s *Store) checkTemplateDuplication(ctx context.Context, q Querier, ownerID int64, name string, excludeID int64) error {
	b := builder().
		Select("id").
		From("templates").
		Where("created_by = ?", ownerID).
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
		return domain.NewError("check_duplication", "templates", domain.ErrConflict)
	}
	return nil
}

// CreateTemplate writes a blueprint and its full exercise tree in one
// transaction. The optional photo is uploaded after the commit; an upload
// failure leaves a template without a photo, never a photo without a
// template.
func (s *Store) CreateTemplate(ctx context.Context, ownerID int64, input domain.TemplateInput, file *domain.Upload) (domain.Template, error) {
	if err := requireOwner("create_template", ownerID); err != nil {
		return domain.Template{}, err
	}
	if input.Name == "" {
		return domain.Template{}, domain.NewError("create_template", "templates",
			fmt.Errorf("%w: name is required", domain.ErrInvalidArgument))
	}

	plans, err := planWorkoutExercises("create_template", input.Exercises)
	if err != nil {
		return domain.Template{}, err
	}

	if err := s.checkTemplateDuplication(ctx, s.db, ownerID, input.Name, 0); err != nil {
		return domain.Template{}, err
	}

	var row templateRow
	err = s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := builder().
			Insert("templates").
			Columns("name", "description", "created_by").
			Values(input.Name, nullableString(input.Description), ownerID).
			Suffix("RETURNING " + templateColumns).
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return err
		}

		return s.insertWorkoutExercises(ctx, tx, templateTables, row.ID, plans)
	})
	if err != nil {
		return domain.Template{}, err
	}

	if file != nil {
		if err := s.attachUpload(ctx, "templates", row.ID, file); err != nil {
			s.log.WithField("template", row.ID).Error("failed to attach template photo: %v", err)
		}
	}

	return mapTemplateRow(row), nil
}

// UpdateTemplate rewrites a blueprint. The exercise tree is replaced
// wholesale: existing links are deleted and the submitted tree is inserted,
// all within one transaction.
func (s *Store) UpdateTemplate(ctx context.Context, ownerID int64, input domain.TemplateInput, file *domain.Upload) (domain.Template, error) {
	if err := requireOwner("update_template", ownerID); err != nil {
		return domain.Template{}, err
	}
	if input.ID == "" || input.Name == "" {
		return domain.Template{}, domain.NewError("update_template", "templates",
			fmt.Errorf("%w: id and name are required", domain.ErrInvalidArgument))
	}

	id, err := relay.DecodeID(relay.KindTemplate, input.ID)
	if err != nil {
		return domain.Template{}, err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindTemplate, id, ownerID); err != nil {
		return domain.Template{}, err
	}

	plans, err := planWorkoutExercises("update_template", input.Exercises)
	if err != nil {
		return domain.Template{}, err
	}

	if err := s.checkTemplateDuplication(ctx, s.db, ownerID, input.Name, id); err != nil {
		return domain.Template{}, err
	}

	var row templateRow
	err = s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := builder().
			Update("templates").
			Set("name", input.Name).
			Set("description", nullableString(input.Description)).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where("id = ?", id).
			Suffix("RETURNING " + templateColumns).
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			return err
		}

		if err := s.deleteWorkoutExercises(ctx, tx, templateTables, id); err != nil {
			return err
		}
		return s.insertWorkoutExercises(ctx, tx, templateTables, id, plans)
	})
	if err != nil {
		return domain.Template{}, err
	}

	if file != nil {
		if err := s.attachUpload(ctx, "templates", id, file); err != nil {
			s.log.WithField("template", id).Error("failed to attach template photo: %v", err)
		}
	}

	return mapTemplateRow(row), nil
}

// DeleteTemplate archives a blueprint and discards its photo. Exercise links
// stay in place; they are only reachable through the template.
func (s *Store) DeleteTemplate(ctx context.Context, ownerID int64, encodedID string) (string, error) {
	if err := requireOwner("delete_template", ownerID); err != nil {
		return "", err
	}

	id, err := relay.DecodeID(relay.KindTemplate, encodedID)
	if err != nil {
		return "", err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindTemplate, id, ownerID); err != nil {
		return "", err
	}

	if err := s.archive(ctx, s.db, "templates", id); err != nil {
		return "", err
	}

	if err := s.removePhoto(ctx, "templates", id); err != nil {
		s.log.WithField("template", id).Error("failed to remove template photo: %v", err)
	}

	return encodedID, nil
}

// TemplatePhoto resolves a template's photo, nil when none is attached.
func (s *Store) TemplatePhoto(ctx context.Context, encodedID string) (*domain.Photo, error) {
	id, err := relay.DecodeID(relay.KindTemplate, encodedID)
	if err != nil {
		return nil, err
	}
	return s.photoFor(ctx, s.db, "templates", id)
}

// TemplateExercises lists a template's exercise links in workout order.
func (s *Store) TemplateExercises(ctx context.Context, encodedID string) ([]domain.WorkoutExercise, error) {
	id, err := relay.DecodeID(relay.KindTemplate, encodedID)
	if err != nil {
		return nil, err
	}
	return s.workoutExercises(ctx, templateTables, id)
}

// TemplateExerciseDetail resolves the catalog exercise behind a link.
func (s *Store) TemplateExerciseDetail(ctx context.Context, encodedLinkID string) (domain.ExerciseDetail, error) {
	linkID, err := relay.DecodeID(relay.KindTemplateExercise, encodedLinkID)
	if err != nil {
		return domain.ExerciseDetail{}, err
	}
	return s.workoutExerciseDetail(ctx, templateTables, linkID)
}

// TemplateExerciseSets returns a link's sets grouped by set number.
func (s *Store) TemplateExerciseSets(ctx context.Context, encodedLinkID string) ([]domain.Set, error) {
	linkID, err := relay.DecodeID(relay.KindTemplateExercise, encodedLinkID)
	if err != nil {
		return nil, err
	}
	return s.workoutSets(ctx, templateTables, linkID)
}
