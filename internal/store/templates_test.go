package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/coach/internal/domain"
)

func templateTestRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "name", "description", "created_by", "archived_at", "created_at", "updated_at",
	})
}

func benchAndSquat() []domain.WorkoutExerciseInput {
	ten := "10"
	eighty := "80"
	return []domain.WorkoutExerciseInput{
		{
			ExerciseID:    "EXERCISE-1",
			OrderPosition: 1,
			Sets: []domain.SetInput{
				{SetNumber: 1, Variables: []domain.SetVariableInput{
					{VariableID: "EXERCISE-VARIABLES-5", TargetValue: &ten},
					{VariableID: "EXERCISE-VARIABLES-6", TargetValue: &eighty},
				}},
				{SetNumber: 2, Variables: []domain.SetVariableInput{
					{VariableID: "EXERCISE-VARIABLES-5", TargetValue: &ten},
				}},
			},
		},
		{
			ExerciseID:    "EXERCISE-2",
			OrderPosition: 2,
		},
	}
}

func TestCreateTemplate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("writes the whole tree in one transaction", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT id FROM templates WHERE created_by = \$1 AND name = \$2 AND archived_at IS NULL`).
			WithArgs(int64(1), "Push Day").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO templates \(name,description,created_by\) VALUES \(\$1,\$2,\$3\) RETURNING .*`).
			WillReturnRows(templateTestRows(t).AddRow(100, "Push Day", nil, 1, nil, now, now))

		mock.ExpectQuery(`INSERT INTO template_exercises \(template_id,exercise_id,order_position\) VALUES \(\$1,\$2,\$3\),\(\$4,\$5,\$6\) RETURNING id`).
			WithArgs(int64(100), int64(1), 1, int64(100), int64(2), 2).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(201).AddRow(202))

		mock.ExpectExec(`INSERT INTO template_exercise_set_variables \(template_exercise_id,set_number,exercise_variable_id,target_value\) VALUES \(\$1,\$2,\$3,\$4\),\(\$5,\$6,\$7,\$8\),\(\$9,\$10,\$11,\$12\)`).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		template, err := s.CreateTemplate(ctx, 1, domain.TemplateInput{
			Name:      "Push Day",
			Exercises: benchAndSquat(),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "TEMPLATE-100", template.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a child insert fails", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT id FROM templates WHERE created_by = \$1 AND name = \$2`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO templates .* RETURNING .*`).
			WillReturnRows(templateTestRows(t).AddRow(100, "Push Day", nil, 1, nil, now, now))
		mock.ExpectQuery(`INSERT INTO template_exercises .* RETURNING id`).
			WillReturnError(errors.New("constraint violation"))
		mock.ExpectRollback()

		_, err := s.CreateTemplate(ctx, 1, domain.TemplateInput{
			Name:      "Push Day",
			Exercises: benchAndSquat(),
		}, nil)
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requires at least one exercise", func(t *testing.T) {
		s, _, _, _ := newTestStore(t)

		_, err := s.CreateTemplate(ctx, 1, domain.TemplateInput{Name: "Push Day"}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("uploads the photo only after the commit", func(t *testing.T) {
		s, mock, mem, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT id FROM templates WHERE created_by = \$1 AND name = \$2`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO templates .* RETURNING .*`).
			WillReturnRows(templateTestRows(t).AddRow(100, "Push Day", nil, 1, nil, now, now))
		mock.ExpectQuery(`INSERT INTO template_exercises .* RETURNING id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(201).AddRow(202))
		mock.ExpectExec(`INSERT INTO template_exercise_set_variables .*`).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		mock.ExpectQuery(`SELECT photography_url, photography_key FROM photos WHERE model = \$1 AND model_id = \$2`).
			WithArgs("templates", int64(100)).
			WillReturnRows(sqlmock.NewRows([]string{"photography_url", "photography_key"}))
		mock.ExpectExec(`INSERT INTO photos \(model,model_id,photography_url,photography_key\) VALUES \(\$1,\$2,\$3,\$4\) ON CONFLICT \(model, model_id\) DO UPDATE SET .*`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		upload := &domain.Upload{
			Filename:    "cover.jpg",
			ContentType: "image/jpeg",
			Reader:      strings.NewReader("jpeg bytes"),
		}
		_, err := s.CreateTemplate(ctx, 1, domain.TemplateInput{
			Name:      "Push Day",
			Exercises: benchAndSquat(),
		}, upload)
		require.NoError(t, err)
		assert.Equal(t, 1, mem.Len())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateTemplate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("replaces the exercise tree wholesale", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT id, created_by FROM templates WHERE id = \$1 LIMIT 1`).
			WithArgs(int64(100)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_by"}).AddRow(100, 1))

		mock.ExpectQuery(`SELECT id FROM templates WHERE created_by = \$1 AND name = \$2 AND archived_at IS NULL AND id <> \$3`).
			WithArgs(int64(1), "Push Day v2", int64(100)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE templates SET name = \$1, description = \$2, updated_at = NOW\(\) WHERE id = \$3 RETURNING .*`).
			WillReturnRows(templateTestRows(t).AddRow(100, "Push Day v2", nil, 1, nil, now, now))
		mock.ExpectExec(`DELETE FROM template_exercises WHERE template_id = \$1`).
			WithArgs(int64(100)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectQuery(`INSERT INTO template_exercises .* RETURNING id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(301).AddRow(302))
		mock.ExpectExec(`INSERT INTO template_exercise_set_variables .*`).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		template, err := s.UpdateTemplate(ctx, 1, domain.TemplateInput{
			ID:        "TEMPLATE-100",
			Name:      "Push Day v2",
			Exercises: benchAndSquat(),
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Push Day v2", template.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects foreign template", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT id, created_by FROM templates WHERE id = \$1 LIMIT 1`).
			WithArgs(int64(100)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_by"}).AddRow(100, 9))

		_, err := s.UpdateTemplate(ctx, 1, domain.TemplateInput{
			ID:        "TEMPLATE-100",
			Name:      "Push Day",
			Exercises: benchAndSquat(),
		}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotOwner)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTemplateReaders(t *testing.T) {
	ctx := context.Background()

	t.Run("exercises come back in workout order", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT id, order_position FROM template_exercises WHERE template_id = \$1 ORDER BY order_position ASC`).
			WithArgs(int64(100)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "order_position"}).
				AddRow(201, 1).
				AddRow(202, 2))

		exercises, err := s.TemplateExercises(ctx, "TEMPLATE-100")
		require.NoError(t, err)
		require.Len(t, exercises, 2)
		assert.Equal(t, "TEMPLATE-EXERCISES-201", exercises[0].ID)
		assert.Equal(t, 1, exercises[0].OrderPosition)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sets group flat rows by set number", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT sv\.id, sv\.set_number, sv\.target_value, .* FROM template_exercise_set_variables sv LEFT JOIN exercise_variables ev ON ev\.id = sv\.exercise_variable_id WHERE sv\.template_exercise_id = \$1 ORDER BY sv\.set_number ASC, ev\.name ASC`).
			WithArgs(int64(201)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "set_number", "target_value", "variable_id", "variable_name", "variable_description", "variable_unit",
			}).
				AddRow(1, 1, "10", 5, "Reps", nil, "count").
				AddRow(2, 1, "80", 6, "Weight", nil, "kg").
				AddRow(3, 2, "8", 5, "Reps", nil, "count"))

		sets, err := s.TemplateExerciseSets(ctx, "TEMPLATE-EXERCISES-201")
		require.NoError(t, err)
		require.Len(t, sets, 2)
		assert.Equal(t, 1, sets[0].SetNumber)
		require.Len(t, sets[0].Variables, 2)
		assert.Equal(t, "EXERCISE-VARIABLES-5", sets[0].Variables[0].Variable.ID)
		require.NotNil(t, sets[0].Variables[0].TargetValue)
		assert.Equal(t, "10", *sets[0].Variables[0].TargetValue)
		require.Len(t, sets[1].Variables, 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("dangling variable reference survives as nulls", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`FROM template_exercise_set_variables sv LEFT JOIN exercise_variables ev`).
			WithArgs(int64(201)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "set_number", "target_value", "variable_id", "variable_name", "variable_description", "variable_unit",
			}).AddRow(1, 1, nil, nil, nil, nil, nil))

		sets, err := s.TemplateExerciseSets(ctx, "TEMPLATE-EXERCISES-201")
		require.NoError(t, err)
		require.Len(t, sets, 1)
		require.Len(t, sets[0].Variables, 1)
		assert.Empty(t, sets[0].Variables[0].Variable.ID)
		assert.Nil(t, sets[0].Variables[0].Variable.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("detail keeps nulls from missing catalog rows", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT e\.id, e\.name, e\.url, c\.name AS category FROM template_exercises le LEFT JOIN exercises e ON e\.id = le\.exercise_id LEFT JOIN categories c ON c\.id = e\.category WHERE le\.id = \$1`).
			WithArgs(int64(201)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "url", "category"}).
				AddRow(nil, nil, nil, nil))

		detail, err := s.TemplateExerciseDetail(ctx, "TEMPLATE-EXERCISES-201")
		require.NoError(t, err)
		assert.Empty(t, detail.ID)
		assert.Nil(t, detail.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
