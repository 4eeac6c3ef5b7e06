package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/relay"
)

type exerciseRow struct {
	ID           int64      `db:"id"`
	Name         string     `db:"name"`
	URL          string     `db:"url"`
	Category     int64      `db:"category"`
	CategoryName string     `db:"category_name"`
	CreatedBy    int64      `db:"created_by"`
	ArchivedAt   *time.Time `db:"archived_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func mapExerciseRow(row exerciseRow) domain.Exercise {
	return domain.Exercise{
		ID:           relay.EncodeID(relay.KindExercise, row.ID),
		Name:         row.Name,
		URL:          row.URL,
		Category:     relay.EncodeID(relay.KindCategory, row.Category),
		CategoryName: row.CategoryName,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

// Exercises lists the caller's exercises as a forward-only connection.
// A category filter includes the category's immediate subcategories, so
// filtering by a parent matches exercises filed under any of its children.
func (s *Store) Exercises(ctx context.Context, ownerID int64, page relay.PageArgs, category string) (relay.Connection[domain.Exercise], error) {
	var zero relay.Connection[domain.Exercise]

	if err := requireOwner("exercises", ownerID); err != nil {
		return zero, err
	}

	b := builder().
		Select("e.id", "e.name", "e.url", "e.category", "e.created_by",
			"e.archived_at", "e.created_at", "e.updated_at",
			"c.name AS category_name").
		From("exercises e").
		Join("categories c ON e.category = c.id").
		Where("e.created_by = ?", ownerID).
		Where("e.archived_at IS NULL")

	if category != "" {
		categoryID, err := relay.DecodeID(relay.KindCategory, category)
		if err != nil {
			return zero, err
		}

		children, err := s.subcategoryRows(ctx, s.db, []int64{categoryID}, ownerID)
		if err != nil {
			return zero, err
		}

		if len(children) > 0 {
			ids := []int64{categoryID}
			for _, child := range children {
				ids = append(ids, child.ID)
			}
			b = b.Where("e.category = ANY(?)", pq.Array(ids))
		} else {
			b = b.Where("e.category = ?", categoryID)
		}
	}

	if term := trimSearch(page.Search); term != "" {
		b = b.Where("e.name ILIKE ?", "%"+term+"%")
	}

	b, err := relay.Window(b, "e.id", page)
	if err != nil {
		return zero, err
	}

	query, args, err := b.ToSql()
	if err != nil {
		return zero, err
	}

	var rows []exerciseRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return zero, err
	}

	nodes := make([]domain.Exercise, len(rows))
	ids := make([]int64, len(rows))
	for i, row := range rows {
		nodes[i] = mapExerciseRow(row)
		ids[i] = row.ID
	}

	return relay.Connect(nodes, ids, page.Limit()), nil
}

// categoriesExercises returns the ids of non-archived exercises filed under
// any of the given categories. Used to block category deletion.
func (s *Store) categoriesExercises(ctx context.Context, q Querier, categoryIDs []int64, ownerID int64) ([]int64, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	query, args, err := builder().
		Select("id").
		From("exercises").
		Where("category = ANY(?)", pq.Array(categoryIDs)).
		Where("created_by = ?", ownerID).
		Where("archived_at IS NULL").
		ToSql()
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := q.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) checkExerciseDuplication(ctx context.Context, q Querier, ownerID int64, name string, excludeID int64) error {
	b := builder().
		Select("id").
		From("exercises").
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
		return domain.NewError("check_duplication", "exercises", domain.ErrConflict)
	}
	return nil
}

// AddExercise creates a catalog entry. The referenced category must exist and
// belong to the caller.
func (s *Store) AddExercise(ctx context.Context, ownerID int64, input domain.ExerciseInput) (domain.Exercise, error) {
	if err := requireOwner("add_exercise", ownerID); err != nil {
		return domain.Exercise{}, err
	}
	if input.Name == "" || input.Category == "" || input.URL == "" {
		return domain.Exercise{}, domain.NewError("add_exercise", "exercises",
			fmt.Errorf("%w: name, category and url are required", domain.ErrInvalidArgument))
	}

	categoryID, err := relay.DecodeID(relay.KindCategory, input.Category)
	if err != nil {
		return domain.Exercise{}, err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindCategory, categoryID, ownerID); err != nil {
		return domain.Exercise{}, err
	}

	if err := s.checkExerciseDuplication(ctx, s.db, ownerID, input.Name, 0); err != nil {
		return domain.Exercise{}, err
	}

	query, args, err := builder().
		Insert("exercises").
		Columns("name", "category", "url", "created_by").
		Values(input.Name, categoryID, input.URL, ownerID).
		Suffix("RETURNING id, name, url, category, created_by, archived_at, created_at, updated_at").
		ToSql()
	if err != nil {
		return domain.Exercise{}, err
	}

	var row exerciseRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Exercise{}, err
	}
	return mapExerciseRow(row), nil
}

// EditExercise updates name, category and url of an exercise.
func (s *Store) EditExercise(ctx context.Context, ownerID int64, input domain.ExerciseInput) (domain.Exercise, error) {
	if err := requireOwner("edit_exercise", ownerID); err != nil {
		return domain.Exercise{}, err
	}
	if input.ID == "" || input.Name == "" || input.Category == "" || input.URL == "" {
		return domain.Exercise{}, domain.NewError("edit_exercise", "exercises",
			fmt.Errorf("%w: id, name, category and url are required", domain.ErrInvalidArgument))
	}

	id, err := relay.DecodeID(relay.KindExercise, input.ID)
	if err != nil {
		return domain.Exercise{}, err
	}
	categoryID, err := relay.DecodeID(relay.KindCategory, input.Category)
	if err != nil {
		return domain.Exercise{}, err
	}

	if err := s.checkOwnership(ctx, s.db, relay.KindCategory, categoryID, ownerID); err != nil {
		return domain.Exercise{}, err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindExercise, id, ownerID); err != nil {
		return domain.Exercise{}, err
	}

	if err := s.checkExerciseDuplication(ctx, s.db, ownerID, input.Name, id); err != nil {
		return domain.Exercise{}, err
	}

	query, args, err := builder().
		Update("exercises").
		Set("name", input.Name).
		Set("category", categoryID).
		Set("url", input.URL).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", id).
		Suffix("RETURNING id, name, url, category, created_by, archived_at, created_at, updated_at").
		ToSql()
	if err != nil {
		return domain.Exercise{}, err
	}

	var row exerciseRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Exercise{}, err
	}
	return mapExerciseRow(row), nil
}

// DeleteExercise archives an exercise. Archiving an already archived row is
// an idempotent success.
func (s *Store) DeleteExercise(ctx context.Context, ownerID int64, encodedID string) (string, error) {
	if err := requireOwner("delete_exercise", ownerID); err != nil {
		return "", err
	}

	id, err := relay.DecodeID(relay.KindExercise, encodedID)
	if err != nil {
		return "", err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindExercise, id, ownerID); err != nil {
		return "", err
	}

	if err := s.archive(ctx, s.db, "exercises", id); err != nil {
		return "", err
	}
	return encodedID, nil
}

// archive soft-deletes a row by stamping archived_at.
func (s *Store) archive(ctx context.Context, q Querier, table string, id int64) error {
	query, args, err := builder().
		Update(table).
		Set("archived_at", squirrel.Expr("CURRENT_TIMESTAMP")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, query, args...)
	return err
}

// trimSearch normalizes a search term; whitespace-only terms are ignored.
func trimSearch(term string) string {
	return strings.TrimSpace(term)
}
