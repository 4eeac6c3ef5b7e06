package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/relay"
)

// workoutSchema names the tables of one workout aggregate. Templates and
// trainings share the same parent/links/sets shape; keeping the table names
// here lets both reuse the replace-all-children writer and the tree reader.
type workoutSchema struct {
	parentTable string
	linkTable   string
	linkColumn  string
	setTable    string
	setLinkCol  string
	linkKind    relay.Kind
}

var (
	templateTables = workoutSchema{
		parentTable: "templates",
		linkTable:   "template_exercises",
		linkColumn:  "template_id",
		setTable:    "template_exercise_set_variables",
		setLinkCol:  "template_exercise_id",
		linkKind:    relay.KindTemplateExercise,
	}

	trainingTables = workoutSchema{
		parentTable: "trainings",
		linkTable:   "training_exercises",
		linkColumn:  "training_id",
		setTable:    "training_exercise_set_variables",
		setLinkCol:  "training_exercise_id",
		linkKind:    relay.KindTrainingExercise,
	}
)

// setVariablePlan is one flattened (set, variable, target) row to insert.
type setVariablePlan struct {
	setNumber  int
	variableID int64
	target     *string
}

// exercisePlan is one decoded exercise link of a composite write.
type exercisePlan struct {
	exerciseID    int64
	orderPosition int
	variables     []setVariablePlan
}

// planWorkoutExercises validates and decodes the exercise list of a composite
// write before any transaction is opened. Order positions are caller-supplied
// and intentionally not renumbered or checked for contiguity.
func planWorkoutExercises(op string, exercises []domain.WorkoutExerciseInput) ([]exercisePlan, error) {
	if len(exercises) == 0 {
		return nil, domain.NewError(op, "",
			fmt.Errorf("%w: at least one exercise is required", domain.ErrInvalidArgument))
	}

	plans := make([]exercisePlan, len(exercises))
	for i, ex := range exercises {
		exerciseID, err := relay.DecodeID(relay.KindExercise, ex.ExerciseID)
		if err != nil {
			return nil, err
		}

		plan := exercisePlan{exerciseID: exerciseID, orderPosition: ex.OrderPosition}
		for _, set := range ex.Sets {
			for _, variable := range set.Variables {
				variableID, err := relay.DecodeID(relay.KindVariable, variable.VariableID)
				if err != nil {
					return nil, err
				}
				plan.variables = append(plan.variables, setVariablePlan{
					setNumber:  set.SetNumber,
					variableID: variableID,
					target:     variable.TargetValue,
				})
			}
		}
		plans[i] = plan
	}

	return plans, nil
}

// insertWorkoutExercises bulk-inserts the ordered exercise links and their
// flattened set-variable rows. Must run inside the composite write's
// transaction: a failure anywhere rolls back the whole aggregate.
func (s *Store) insertWorkoutExercises(ctx context.Context, tx *sqlx.Tx, ws workoutSchema, parentID int64, plans []exercisePlan) error {
	b := builder().
		Insert(ws.linkTable).
		Columns(ws.linkColumn, "exercise_id", "order_position")
	for _, plan := range plans {
		b = b.Values(parentID, plan.exerciseID, plan.orderPosition)
	}

	query, args, err := b.Suffix("RETURNING id").ToSql()
	if err != nil {
		return err
	}

	var linkIDs []int64
	if err := tx.SelectContext(ctx, &linkIDs, query, args...); err != nil {
		return err
	}
	if len(linkIDs) != len(plans) {
		return fmt.Errorf("expected %d inserted exercise links, got %d", len(plans), len(linkIDs))
	}

	for i, plan := range plans {
		if len(plan.variables) == 0 {
			continue
		}

		sb := builder().
			Insert(ws.setTable).
			Columns(ws.setLinkCol, "set_number", "exercise_variable_id", "target_value")
		for _, v := range plan.variables {
			sb = sb.Values(linkIDs[i], v.setNumber, v.variableID, v.target)
		}

		query, args, err := sb.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	return nil
}

// deleteWorkoutExercises removes all exercise links of a parent; set-variable
// rows go with them via the FK cascade. Together with insertWorkoutExercises
// this implements the replace-all-children update strategy.
func (s *Store) deleteWorkoutExercises(ctx context.Context, tx *sqlx.Tx, ws workoutSchema, parentID int64) error {
	query, args, err := builder().
		Delete(ws.linkTable).
		Where(ws.linkColumn+" = ?", parentID).
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

type workoutExerciseRow struct {
	ID            int64 `db:"id"`
	OrderPosition int   `db:"order_position"`
}

// workoutExercises lists a parent's exercise links in order_position order.
func (s *Store) workoutExercises(ctx context.Context, ws workoutSchema, parentID int64) ([]domain.WorkoutExercise, error) {
	query, args, err := builder().
		Select("id", "order_position").
		From(ws.linkTable).
		Where(ws.linkColumn+" = ?", parentID).
		OrderBy("order_position ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []workoutExerciseRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	exercises := make([]domain.WorkoutExercise, len(rows))
	for i, row := range rows {
		exercises[i] = domain.WorkoutExercise{
			ID:            relay.EncodeID(ws.linkKind, row.ID),
			OrderPosition: row.OrderPosition,
		}
	}
	return exercises, nil
}

type exerciseDetailRow struct {
	ID       *int64  `db:"id"`
	Name     *string `db:"name"`
	URL      *string `db:"url"`
	Category *string `db:"category"`
}

// workoutExerciseDetail loads the catalog row behind an exercise link. The
// left joins keep links readable when the catalog row or its category is
// gone; nulls surface through.
func (s *Store) workoutExerciseDetail(ctx context.Context, ws workoutSchema, linkID int64) (domain.ExerciseDetail, error) {
	query, args, err := builder().
		Select("e.id", "e.name", "e.url", "c.name AS category").
		From(ws.linkTable+" le").
		LeftJoin("exercises e ON e.id = le.exercise_id").
		LeftJoin("categories c ON c.id = e.category").
		Where("le.id = ?", linkID).
		ToSql()
	if err != nil {
		return domain.ExerciseDetail{}, err
	}

	var row exerciseDetailRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.ExerciseDetail{}, err
	}

	detail := domain.ExerciseDetail{
		Name:     row.Name,
		URL:      row.URL,
		Category: row.Category,
	}
	if row.ID != nil {
		detail.ID = relay.EncodeID(relay.KindExercise, *row.ID)
	}
	return detail, nil
}

type setVariableRow struct {
	RowID               int64   `db:"id"`
	SetNumber           int     `db:"set_number"`
	TargetValue         *string `db:"target_value"`
	VariableID          *int64  `db:"variable_id"`
	VariableName        *string `db:"variable_name"`
	VariableDescription *string `db:"variable_description"`
	VariableUnit        *string `db:"variable_unit"`
}

// workoutSets loads an exercise link's flattened set-variable rows and groups
// them into sets by set number. Rows come back ordered by (set_number,
// variable name); a link without sets yields an empty list.
func (s *Store) workoutSets(ctx context.Context, ws workoutSchema, linkID int64) ([]domain.Set, error) {
	query, args, err := builder().
		Select("sv.id", "sv.set_number", "sv.target_value",
			"ev.id AS variable_id",
			"ev.name AS variable_name",
			"ev.description AS variable_description",
			"ev.unit AS variable_unit").
		From(ws.setTable+" sv").
		LeftJoin("exercise_variables ev ON ev.id = sv.exercise_variable_id").
		Where("sv."+ws.setLinkCol+" = ?", linkID).
		OrderBy("sv.set_number ASC", "ev.name ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []setVariableRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	sets := []domain.Set{}
	index := make(map[int]int)
	for _, row := range rows {
		i, ok := index[row.SetNumber]
		if !ok {
			i = len(sets)
			index[row.SetNumber] = i
			sets = append(sets, domain.Set{SetNumber: row.SetNumber})
		}

		ref := domain.VariableRef{
			Name:        row.VariableName,
			Description: row.VariableDescription,
			Unit:        row.VariableUnit,
		}
		if row.VariableID != nil {
			ref.ID = relay.EncodeID(relay.KindVariable, *row.VariableID)
		}

		sets[i].Variables = append(sets[i].Variables, domain.SetVariable{
			RowID:       row.RowID,
			Variable:    ref,
			TargetValue: row.TargetValue,
		})
	}

	return sets, nil
}
