package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/media"
)

func detailsTestRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "user_id", "birthday", "height", "weight", "sex",
		"photography_url", "photography_key", "created_at", "updated_at",
	})
}

func expectUserOwned(mock sqlmock.Sqlmock, userID, ownerID int64) {
	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "status", "created_by", "registration_token",
			"registration_token_expires_at", "deactivated_at", "archived_at", "created_at", "updated_at",
		}).AddRow(userID, "Ana", "ana@example.com", domain.StatusActive, ownerID, nil, nil, nil, nil, now, now))
}

func TestUserDetails(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("missing profile reads as nil", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		expectUserOwned(mock, 50, 1)
		mock.ExpectQuery(`SELECT .* FROM user_details WHERE user_id = \$1`).
			WithArgs(int64(50)).
			WillReturnError(sql.ErrNoRows)

		details, err := s.UserDetails(ctx, 1, "USER-50")
		require.NoError(t, err)
		assert.Nil(t, details)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing profile maps through", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		height := 1.78
		expectUserOwned(mock, 50, 1)
		mock.ExpectQuery(`SELECT .* FROM user_details WHERE user_id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(detailsTestRows(t).
				AddRow(7, 50, nil, height, nil, nil, nil, nil, now, now))

		details, err := s.UserDetails(ctx, 1, "USER-50")
		require.NoError(t, err)
		require.NotNil(t, details)
		assert.Equal(t, "USER-DETAILS-7", details.ID)
		assert.Equal(t, "USER-50", details.UserID)
		require.NotNil(t, details.Height)
		assert.Equal(t, height, *details.Height)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateUserDetails(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("upserts one row per client", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		weight := 82.5
		expectUserOwned(mock, 50, 1)
		mock.ExpectQuery(`INSERT INTO user_details \(user_id,birthday,height,weight,sex\) VALUES \(\$1,\$2,\$3,\$4,\$5\) ON CONFLICT \(user_id\) DO UPDATE SET .* RETURNING .*`).
			WithArgs(int64(50), nil, nil, weight, nil).
			WillReturnRows(detailsTestRows(t).
				AddRow(7, 50, nil, nil, weight, nil, nil, nil, now, now))

		details, err := s.UpdateUserDetails(ctx, 1, "USER-50", domain.UserDetailsInput{Weight: &weight})
		require.NoError(t, err)
		require.NotNil(t, details.Weight)
		assert.Equal(t, weight, *details.Weight)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a client managed by someone else", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		expectUserOwned(mock, 50, 9)

		_, err := s.UpdateUserDetails(ctx, 1, "USER-50", domain.UserDetailsInput{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotOwner)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUploadProfilePhoto(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("replaces the previous asset", func(t *testing.T) {
		s, mock, mem, _ := newTestStore(t)

		seed, err := mem.Upload(ctx, "users/50", strings.NewReader("old"), media.UploadOptions{ContentType: "image/jpeg"})
		require.NoError(t, err)

		oldKey := seed.Key
		expectUserOwned(mock, 50, 1)
		mock.ExpectQuery(`SELECT .* FROM user_details WHERE user_id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(detailsTestRows(t).
				AddRow(7, 50, nil, nil, nil, nil, "memory://"+oldKey, oldKey, now, now))

		mock.ExpectQuery(`INSERT INTO user_details \(user_id,photography_url,photography_key\) VALUES \(\$1,\$2,\$3\) ON CONFLICT \(user_id\) DO UPDATE SET .* RETURNING .*`).
			WillReturnRows(detailsTestRows(t).
				AddRow(7, 50, nil, nil, nil, nil, "memory://users/50/2", "users/50/2", now, now))

		details, err := s.UploadProfilePhoto(ctx, 1, "USER-50", &domain.Upload{
			Filename:    "avatar.jpg",
			ContentType: "image/jpeg",
			Reader:      strings.NewReader("new"),
		})
		require.NoError(t, err)
		require.NotNil(t, details.PhotographyKey)

		assert.False(t, mem.Has(oldKey))
		assert.Equal(t, 1, mem.Len())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("requires a file", func(t *testing.T) {
		s, _, _, _ := newTestStore(t)

		_, err := s.UploadProfilePhoto(ctx, 1, "USER-50", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}
