package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/relay"
)

type categoryRow struct {
	ID             int64      `db:"id"`
	Name           string     `db:"name"`
	ParentCategory *int64     `db:"parent_category"`
	CreatedBy      int64      `db:"created_by"`
	ArchivedAt     *time.Time `db:"archived_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

const categoryColumns = "id, name, parent_category, created_by, archived_at, created_at, updated_at"

func mapCategoryRow(row categoryRow, subcategories []domain.Category) domain.Category {
	if subcategories == nil {
		subcategories = []domain.Category{}
	}

	cat := domain.Category{
		ID:            relay.EncodeID(relay.KindCategory, row.ID),
		Name:          row.Name,
		Subcategories: subcategories,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.ParentCategory != nil {
		parent := relay.EncodeID(relay.KindCategory, *row.ParentCategory)
		cat.ParentCategory = &parent
	}
	return cat
}

// Categories lists the caller's root categories with their immediate
// subcategories attached. Only one level of nesting is resolved.
func (s *Store) Categories(ctx context.Context, ownerID int64) ([]domain.Category, error) {
	if err := requireOwner("categories", ownerID); err != nil {
		return nil, err
	}

	query, args, err := builder().
		Select(categoryColumns).
		From("categories").
		Where("parent_category IS NULL").
		Where("created_by = ?", ownerID).
		Where("archived_at IS NULL").
		OrderBy("updated_at DESC", "name ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var roots []categoryRow
	if err := s.db.SelectContext(ctx, &roots, query, args...); err != nil {
		return nil, err
	}

	ids := make([]int64, len(roots))
	for i, row := range roots {
		ids[i] = row.ID
	}

	children, err := s.subcategoryRows(ctx, s.db, ids, ownerID)
	if err != nil {
		return nil, err
	}

	byParent := make(map[int64][]domain.Category)
	for _, child := range children {
		if child.ParentCategory == nil {
			continue
		}
		byParent[*child.ParentCategory] = append(byParent[*child.ParentCategory], mapCategoryRow(child, nil))
	}

	categories := make([]domain.Category, len(roots))
	for i, row := range roots {
		categories[i] = mapCategoryRow(row, byParent[row.ID])
	}
	return categories, nil
}

// subcategoryRows fetches the immediate non-archived children of the given
// parents, scoped to the owner. Deeper descendants are deliberately not
// resolved.
func (s *Store) subcategoryRows(ctx context.Context, q Querier, parentIDs []int64, ownerID int64) ([]categoryRow, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	query, args, err := builder().
		Select(categoryColumns).
		From("categories").
		Where("parent_category = ANY(?)", pq.Array(parentIDs)).
		Where("created_by = ?", ownerID).
		Where("archived_at IS NULL").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []categoryRow
	if err := q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// checkCategoryDuplication rejects a sibling with the same name under the
// same parent for the same owner, ignoring archived rows and the row under
// edit.
func (s *Store) checkCategoryDuplication(ctx context.Context, q Querier, ownerID int64, name string, parentID *int64, excludeID int64) error {
	b := builder().
		Select("id").
		From("categories").
		Where("created_by = ?", ownerID).
		Where("name = ?", name).
		Where("archived_at IS NULL")

	if parentID == nil {
		b = b.Where("parent_category IS NULL")
	} else {
		b = b.Where("parent_category = ?", *parentID)
	}
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
		return domain.NewError("check_duplication", "categories", domain.ErrConflict)
	}
	return nil
}

// AddCategory creates a category, optionally under a parent.
func (s *Store) AddCategory(ctx context.Context, ownerID int64, input domain.CategoryInput) (domain.Category, error) {
	if err := requireOwner("add_category", ownerID); err != nil {
		return domain.Category{}, err
	}
	if input.Name == "" {
		return domain.Category{}, domain.NewError("add_category", "categories",
			fmt.Errorf("%w: name is required", domain.ErrInvalidArgument))
	}

	parentID, err := decodeOptional(relay.KindCategory, input.ParentCategory)
	if err != nil {
		return domain.Category{}, err
	}

	if err := s.checkCategoryDuplication(ctx, s.db, ownerID, input.Name, parentID, 0); err != nil {
		return domain.Category{}, err
	}

	query, args, err := builder().
		Insert("categories").
		Columns("name", "parent_category", "created_by").
		Values(input.Name, parentID, ownerID).
		Suffix("RETURNING " + categoryColumns).
		ToSql()
	if err != nil {
		return domain.Category{}, err
	}

	var row categoryRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Category{}, err
	}
	return mapCategoryRow(row, nil), nil
}

// EditCategory renames a category or moves it under another parent.
func (s *Store) EditCategory(ctx context.Context, ownerID int64, input domain.CategoryInput) (domain.Category, error) {
	if err := requireOwner("edit_category", ownerID); err != nil {
		return domain.Category{}, err
	}
	if input.ID == "" || input.Name == "" {
		return domain.Category{}, domain.NewError("edit_category", "categories",
			fmt.Errorf("%w: id and name are required", domain.ErrInvalidArgument))
	}

	id, err := relay.DecodeID(relay.KindCategory, input.ID)
	if err != nil {
		return domain.Category{}, err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindCategory, id, ownerID); err != nil {
		return domain.Category{}, err
	}

	parentID, err := decodeOptional(relay.KindCategory, input.ParentCategory)
	if err != nil {
		return domain.Category{}, err
	}

	if err := s.checkCategoryDuplication(ctx, s.db, ownerID, input.Name, parentID, id); err != nil {
		return domain.Category{}, err
	}

	query, args, err := builder().
		Update("categories").
		Set("name", input.Name).
		Set("parent_category", parentID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", id).
		Suffix("RETURNING " + categoryColumns).
		ToSql()
	if err != nil {
		return domain.Category{}, err
	}

	var row categoryRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Category{}, err
	}
	return mapCategoryRow(row, nil), nil
}

// DeleteCategory archives a category and its direct subcategories. It refuses
// when any non-archived exercise still references the category or a child.
func (s *Store) DeleteCategory(ctx context.Context, ownerID int64, encodedID string) (string, error) {
	if err := requireOwner("delete_category", ownerID); err != nil {
		return "", err
	}

	id, err := relay.DecodeID(relay.KindCategory, encodedID)
	if err != nil {
		return "", err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindCategory, id, ownerID); err != nil {
		return "", err
	}

	children, err := s.subcategoryRows(ctx, s.db, []int64{id}, ownerID)
	if err != nil {
		return "", err
	}

	categoryIDs := []int64{id}
	for _, child := range children {
		categoryIDs = append(categoryIDs, child.ID)
	}

	referenced, err := s.categoriesExercises(ctx, s.db, categoryIDs, ownerID)
	if err != nil {
		return "", err
	}
	if len(referenced) > 0 {
		return "", domain.NewError("delete_category", "categories",
			fmt.Errorf("%w: category has associated exercises", domain.ErrConflict))
	}

	err = s.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if len(children) > 0 {
			query, args, err := builder().
				Update("categories").
				Set("archived_at", squirrel.Expr("CURRENT_TIMESTAMP")).
				Set("updated_at", squirrel.Expr("NOW()")).
				Where("parent_category = ?", id).
				ToSql()
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return err
			}
		}

		query, args, err := builder().
			Update("categories").
			Set("archived_at", squirrel.Expr("CURRENT_TIMESTAMP")).
			Set("updated_at", squirrel.Expr("NOW()")).
			Where("id = ?", id).
			ToSql()
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return "", err
	}

	return encodedID, nil
}

// decodeOptional decodes an encoded id that may be absent, returning nil for
// the empty string.
func decodeOptional(kind relay.Kind, encoded string) (*int64, error) {
	if encoded == "" {
		return nil, nil
	}
	id, err := relay.DecodeID(kind, encoded)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
