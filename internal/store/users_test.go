package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/relay"
)

func userTestRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "status", "created_by", "registration_token",
		"registration_token_expires_at", "deactivated_at", "archived_at", "created_at", "updated_at",
	})
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("archived accounts never appear", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT .* FROM users WHERE created_by = \$1 AND status <> \$2 ORDER BY id ASC LIMIT 11`).
			WithArgs(int64(1), domain.StatusArchived).
			WillReturnRows(userTestRows(t).
				AddRow(50, "Ana", "ana@example.com", domain.StatusActive, 1, nil, nil, nil, nil, now, now))

		conn, err := s.Users(ctx, 1, relay.PageArgs{}, domain.UserFilter{})
		require.NoError(t, err)
		require.Len(t, conn.Edges, 1)
		assert.Equal(t, "USER-50", conn.Edges[0].Node.ID)
		assert.Equal(t, domain.StatusActive, conn.Edges[0].Node.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("status filter narrows further", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT .* FROM users WHERE created_by = \$1 AND status <> \$2 AND status = \$3 ORDER BY id ASC LIMIT 11`).
			WithArgs(int64(1), domain.StatusArchived, domain.StatusPending).
			WillReturnRows(userTestRows(t))

		conn, err := s.Users(ctx, 1, relay.PageArgs{}, domain.UserFilter{Status: domain.StatusPending})
		require.NoError(t, err)
		assert.Empty(t, conn.Edges)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("search matches name or email", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT .* FROM users WHERE created_by = \$1 AND status <> \$2 AND \(name ILIKE \$3 OR email ILIKE \$4\) ORDER BY id ASC LIMIT 11`).
			WithArgs(int64(1), domain.StatusArchived, "%ana%", "%ana%").
			WillReturnRows(userTestRows(t))

		_, err := s.Users(ctx, 1, relay.PageArgs{Search: "ana"}, domain.UserFilter{})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAddUser(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("creates pending account and emails the invitation", func(t *testing.T) {
		s, mock, _, mail := newTestStore(t)

		mock.ExpectQuery(`SELECT id FROM users WHERE email = \$1 AND status <> \$2`).
			WithArgs("ana@example.com", domain.StatusArchived).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		mock.ExpectQuery(`INSERT INTO users \(name,email,status,created_by,registration_token,registration_token_expires_at\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6\) RETURNING .*`).
			WillReturnRows(userTestRows(t).
				AddRow(50, "Ana", "ana@example.com", domain.StatusPending, 1, "token", now.Add(7*24*time.Hour), nil, nil, now, now))

		mail.expect()
		user, err := s.AddUser(ctx, 1, domain.UserInput{Name: "Ana", Email: "ana@example.com"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPending, user.Status)

		mail.wait(t)
		sent := mail.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "ana@example.com", sent[0].To)
		assert.Contains(t, sent[0].HTML, "Ana")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT id FROM users WHERE email = \$1 AND status <> \$2`).
			WithArgs("ana@example.com", domain.StatusArchived).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(50))

		_, err := s.AddUser(ctx, 1, domain.UserInput{Name: "Ana", Email: "ana@example.com"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserStatusSwitches(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	ownRow := func() *sqlmock.Rows {
		return userTestRows(t).
			AddRow(50, "Ana", "ana@example.com", domain.StatusActive, 1, nil, nil, nil, nil, now, now)
	}

	t.Run("deactivate stamps deactivated_at", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(ownRow())
		mock.ExpectExec(`UPDATE users SET status = \$1, updated_at = NOW\(\), deactivated_at = NOW\(\) WHERE id = \$2`).
			WithArgs(domain.StatusDeactivated, int64(50)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(userTestRows(t).
				AddRow(50, "Ana", "ana@example.com", domain.StatusDeactivated, 1, nil, nil, now, nil, now, now))

		user, err := s.DeactivateUser(ctx, 1, "USER-50")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusDeactivated, user.Status)
		require.NotNil(t, user.DeactivatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("activate clears deactivated_at", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(ownRow())
		mock.ExpectExec(`UPDATE users SET status = \$1, updated_at = NOW\(\), deactivated_at = \$2 WHERE id = \$3`).
			WithArgs(domain.StatusActive, nil, int64(50)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(ownRow())

		user, err := s.ActivateUser(ctx, 1, "USER-50")
		require.NoError(t, err)
		assert.Nil(t, user.DeactivatedAt)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete archives the account", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(ownRow())
		mock.ExpectExec(`UPDATE users SET status = \$1, updated_at = NOW\(\), archived_at = NOW\(\) WHERE id = \$2`).
			WithArgs(domain.StatusArchived, int64(50)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		deleted, err := s.DeleteUser(ctx, 1, "USER-50")
		require.NoError(t, err)
		assert.Equal(t, "USER-50", deleted)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("self-registered accounts are unreachable", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(userTestRows(t).
				AddRow(50, "Solo", "solo@example.com", domain.StatusActive, nil, nil, nil, nil, nil, now, now))

		_, err := s.DeactivateUser(ctx, 1, "USER-50")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotOwner)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResendRegistrationEmail(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("rotates the token for a pending account", func(t *testing.T) {
		s, mock, _, mail := newTestStore(t)

		pending := func() *sqlmock.Rows {
			return userTestRows(t).
				AddRow(50, "Ana", "ana@example.com", domain.StatusPending, 1, "old-token", now, nil, nil, now, now)
		}

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(pending())
		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(pending())
		mock.ExpectExec(`UPDATE users SET registration_token = \$1, registration_token_expires_at = \$2, updated_at = NOW\(\) WHERE id = \$3`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mail.expect()
		result, err := s.ResendRegistrationEmail(ctx, 1, "USER-50")
		require.NoError(t, err)
		assert.True(t, result.Success)

		mail.wait(t)
		require.Len(t, mail.sent(), 1)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses for active accounts", func(t *testing.T) {
		s, mock, _, _ := newTestStore(t)

		active := userTestRows(t).
			AddRow(50, "Ana", "ana@example.com", domain.StatusActive, 1, nil, nil, nil, nil, now, now)
		activeAgain := userTestRows(t).
			AddRow(50, "Ana", "ana@example.com", domain.StatusActive, 1, nil, nil, nil, nil, now, now)

		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(active)
		mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
			WithArgs(int64(50)).
			WillReturnRows(activeAgain)

		_, err := s.ResendRegistrationEmail(ctx, 1, "USER-50")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
