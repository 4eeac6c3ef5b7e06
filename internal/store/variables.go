package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/relay"
)

type variableRow struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	Unit        string     `db:"unit"`
	Description *string    `db:"description"`
	CreatedBy   int64      `db:"created_by"`
	ArchivedAt  *time.Time `db:"archived_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const variableColumns = "id, name, unit, description, created_by, archived_at, created_at, updated_at"

func mapVariableRow(row variableRow) domain.Variable {
	return domain.Variable{
		ID:          relay.EncodeID(relay.KindVariable, row.ID),
		Name:        row.Name,
		Unit:        row.Unit,
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// Variables lists the caller's exercise variables as a forward-only
// connection.
func (s *Store) Variables(ctx context.Context, ownerID int64, page relay.PageArgs) (relay.Connection[domain.Variable], error) {
	var zero relay.Connection[domain.Variable]

	if err := requireOwner("variables", ownerID); err != nil {
		return zero, err
	}

	b := builder().
		Select(variableColumns).
		From("exercise_variables").
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

	var rows []variableRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return zero, err
	}

	nodes := make([]domain.Variable, len(rows))
	ids := make([]int64, len(rows))
	for i, row := range rows {
		nodes[i] = mapVariableRow(row)
		ids[i] = row.ID
	}

	return relay.Connect(nodes, ids, page.Limit()), nil
}

func (s *Store) checkVariableDuplication(ctx context.Context, q Querier, ownerID int64, name string, excludeID int64) error {
	b := builder().
		Select("id").
		From("exercise_variables").
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
		return domain.NewError("check_duplication", "exercise_variables", domain.ErrConflict)
	}
	return nil
}

// AddVariable creates a measurable quantity (reps, weight kg, ...).
func (s *Store) AddVariable(ctx context.Context, ownerID int64, input domain.VariableInput) (domain.Variable, error) {
	if err := requireOwner("add_variable", ownerID); err != nil {
		return domain.Variable{}, err
	}
	if input.Name == "" || input.Unit == "" {
		return domain.Variable{}, domain.NewError("add_variable", "exercise_variables",
			fmt.Errorf("%w: name and unit are required", domain.ErrInvalidArgument))
	}

	if err := s.checkVariableDuplication(ctx, s.db, ownerID, input.Name, 0); err != nil {
		return domain.Variable{}, err
	}

	query, args, err := builder().
		Insert("exercise_variables").
		Columns("name", "unit", "description", "created_by").
		Values(input.Name, input.Unit, nullableString(input.Description), ownerID).
		Suffix("RETURNING " + variableColumns).
		ToSql()
	if err != nil {
		return domain.Variable{}, err
	}

	var row variableRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Variable{}, err
	}
	return mapVariableRow(row), nil
}

// EditVariable updates name, unit and description of a variable.
func (s *Store) EditVariable(ctx context.Context, ownerID int64, input domain.VariableInput) (domain.Variable, error) {
	if err := requireOwner("edit_variable", ownerID); err != nil {
		return domain.Variable{}, err
	}
	if input.ID == "" || input.Name == "" || input.Unit == "" {
		return domain.Variable{}, domain.NewError("edit_variable", "exercise_variables",
			fmt.Errorf("%w: id, name and unit are required", domain.ErrInvalidArgument))
	}

	id, err := relay.DecodeID(relay.KindVariable, input.ID)
	if err != nil {
		return domain.Variable{}, err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindVariable, id, ownerID); err != nil {
		return domain.Variable{}, err
	}

	if err := s.checkVariableDuplication(ctx, s.db, ownerID, input.Name, id); err != nil {
		return domain.Variable{}, err
	}

	query, args, err := builder().
		Update("exercise_variables").
		Set("name", input.Name).
		Set("unit", input.Unit).
		Set("description", nullableString(input.Description)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", id).
		Suffix("RETURNING " + variableColumns).
		ToSql()
	if err != nil {
		return domain.Variable{}, err
	}

	var row variableRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.Variable{}, err
	}
	return mapVariableRow(row), nil
}

// DeleteVariable archives a variable.
func (s *Store) DeleteVariable(ctx context.Context, ownerID int64, encodedID string) (string, error) {
	if err := requireOwner("delete_variable", ownerID); err != nil {
		return "", err
	}

	id, err := relay.DecodeID(relay.KindVariable, encodedID)
	if err != nil {
		return "", err
	}
	if err := s.checkOwnership(ctx, s.db, relay.KindVariable, id, ownerID); err != nil {
		return "", err
	}

	if err := s.archive(ctx, s.db, "exercise_variables", id); err != nil {
		return "", err
	}
	return encodedID, nil
}

// nullableString maps the empty string to NULL.
func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
