package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/mailer"
	"github.com/eleven-am/coach/internal/relay"
)

type userRow struct {
	ID                  int64      `db:"id"`
	Name                string     `db:"name"`
	Email               string     `db:"email"`
	Status              string     `db:"status"`
	CreatedBy           *int64     `db:"created_by"`
	RegistrationToken   *string    `db:"registration_token"`
	RegistrationExpires *time.Time `db:"registration_token_expires_at"`
	DeactivatedAt       *time.Time `db:"deactivated_at"`
	ArchivedAt          *time.Time `db:"archived_at"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

const userColumns = "id, name, email, status, created_by, registration_token, " +
	"registration_token_expires_at, deactivated_at, archived_at, created_at, updated_at"

const registrationTokenTTL = 7 * 24 * time.Hour

func mapUserRow(row userRow) domain.User {
	return domain.User{
		ID:            relay.EncodeID(relay.KindUser, row.ID),
		Name:          row.Name,
		Email:         row.Email,
		Status:        row.Status,
		DeactivatedAt: row.DeactivatedAt,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

// Users lists the caller's managed clients as a forward-only connection.
// Archived accounts never appear; a status filter narrows further.
func (s *Store) Users(ctx context.Context, ownerID int64, page relay.PageArgs, filter domain.UserFilter) (relay.Connection[domain.User], error) {
	var zero relay.Connection[domain.User]

	if err := requireOwner("users", ownerID); err != nil {
		return zero, err
	}

	b := builder().
		Select(userColumns).
		From("users").
		Where("created_by = ?", ownerID).
		Where("status <> ?", domain.StatusArchived)

	if filter.Status != "" {
		b = b.Where("status = ?", filter.Status)
	}

	term := trimSearch(page.Search)
	if term == "" {
		term = trimSearch(filter.Search)
	}
	if term != "" {
		b = b.Where(squirrel.Or{
			squirrel.Expr("name ILIKE ?", "%"+term+"%"),
			squirrel.Expr("email ILIKE ?", "%"+term+"%"),
		})
	}

	b, err := relay.Window(b, "id", page)
	if err != nil {
		return zero, err
	}

	query, args, err := b.ToSql()
	if err != nil {
		return zero, err
	}

	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return zero, err
	}

	nodes := make([]domain.User, len(rows))
	ids := make([]int64, len(rows))
	for i, row := range rows {
		nodes[i] = mapUserRow(row)
		ids[i] = row.ID
	}

	return relay.Connect(nodes, ids, page.Limit()), nil
}

// User fetches one managed client by id.
func (s *Store) User(ctx context.Context, ownerID int64, encodedID string) (domain.User, error) {
	if err := requireOwner("user", ownerID); err != nil {
		return domain.User{}, err
	}

	id, err := relay.DecodeID(relay.KindUser, encodedID)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.checkUserOwnership(ctx, id, ownerID); err != nil {
		return domain.User{}, err
	}

	row, err := s.userByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return mapUserRow(row), nil
}

func (s *Store) userByID(ctx context.Context, id int64) (userRow, error) {
	query, args, err := builder().
		Select(userColumns).
		From("users").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return userRow{}, err
	}

	var row userRow
	err = s.db.GetContext(ctx, &row, query, args...)
	return row, err
}

// checkUserOwnership is checkOwnership for accounts, where created_by is
// nullable: self-registered trainers have no manager and are never reachable
// through the managed-client operations.
func (s *Store) checkUserOwnership(ctx context.Context, id, callerID int64) error {
	row, err := s.userByID(ctx, id)
	if err != nil {
		return domain.NewError("check_ownership", "users", domain.ErrNotFound)
	}
	if row.CreatedBy == nil || *row.CreatedBy != callerID {
		return domain.NewError("check_ownership", "users", domain.ErrNotOwner)
	}
	return nil
}

func (s *Store) checkUserDuplication(ctx context.Context, q Querier, email string, excludeID int64) error {
	b := builder().
		Select("id").
		From("users").
		Where("email = ?", email).
		Where("status <> ?", domain.StatusArchived)
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
		return domain.NewError("check_duplication", "users", domain.ErrConflict)
	}
	return nil
}

// newRegistrationToken returns a 64-char hex token and its expiry.
func newRegistrationToken() (string, time.Time, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, err
	}
	return hex.EncodeToString(buf), time.Now().Add(registrationTokenTTL), nil
}

func registrationMessage(name, email, token string) mailer.Message {
	return mailer.Message{
		To:      email,
		Subject: "Complete your registration",
		HTML: fmt.Sprintf("<p>Hi %s,</p><p>Your trainer invited you. "+
			"Use the token <strong>%s</strong> to finish setting up your account. "+
			"The invitation expires in 7 days.</p>", name, token),
	}
}

// AddUser creates a pending client account and emails an invitation token.
// The email is fire-and-forget: the account exists whether or not delivery
// succeeds, and the invitation can be resent.
func (s *Store) AddUser(ctx context.Context, ownerID int64, input domain.UserInput) (domain.User, error) {
	if err := requireOwner("add_user", ownerID); err != nil {
		return domain.User{}, err
	}
	if input.Name == "" || input.Email == "" {
		return domain.User{}, domain.NewError("add_user", "users",
			fmt.Errorf("%w: name and email are required", domain.ErrInvalidArgument))
	}

	if err := s.checkUserDuplication(ctx, s.db, input.Email, 0); err != nil {
		return domain.User{}, err
	}

	token, expires, err := newRegistrationToken()
	if err != nil {
		return domain.User{}, err
	}

	query, args, err := builder().
		Insert("users").
		Columns("name", "email", "status", "created_by", "registration_token", "registration_token_expires_at").
		Values(input.Name, input.Email, domain.StatusPending, ownerID, token, expires).
		Suffix("RETURNING " + userColumns).
		ToSql()
	if err != nil {
		return domain.User{}, err
	}

	var row userRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.User{}, err
	}

	mailer.Dispatch(s.mail, registrationMessage(row.Name, row.Email, token))

	return mapUserRow(row), nil
}

// EditUser updates a client's name and email.
func (s *Store) EditUser(ctx context.Context, ownerID int64, input domain.UserInput) (domain.User, error) {
	if err := requireOwner("edit_user", ownerID); err != nil {
		return domain.User{}, err
	}
	if input.ID == "" || input.Name == "" || input.Email == "" {
		return domain.User{}, domain.NewError("edit_user", "users",
			fmt.Errorf("%w: id, name and email are required", domain.ErrInvalidArgument))
	}

	id, err := relay.DecodeID(relay.KindUser, input.ID)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.checkUserOwnership(ctx, id, ownerID); err != nil {
		return domain.User{}, err
	}

	if err := s.checkUserDuplication(ctx, s.db, input.Email, id); err != nil {
		return domain.User{}, err
	}

	query, args, err := builder().
		Update("users").
		Set("name", input.Name).
		Set("email", input.Email).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", id).
		Suffix("RETURNING " + userColumns).
		ToSql()
	if err != nil {
		return domain.User{}, err
	}

	var row userRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.User{}, err
	}
	return mapUserRow(row), nil
}

// DeleteUser archives a client account. The account drops out of every
// listing but its trainings and details remain for the trainer's records.
func (s *Store) DeleteUser(ctx context.Context, ownerID int64, encodedID string) (string, error) {
	if err := requireOwner("delete_user", ownerID); err != nil {
		return "", err
	}

	id, err := relay.DecodeID(relay.KindUser, encodedID)
	if err != nil {
		return "", err
	}
	if err := s.checkUserOwnership(ctx, id, ownerID); err != nil {
		return "", err
	}

	if err := s.setUserStatus(ctx, id, domain.StatusArchived); err != nil {
		return "", err
	}
	return encodedID, nil
}

// ActivateUser reinstates a deactivated client.
func (s *Store) ActivateUser(ctx context.Context, ownerID int64, encodedID string) (domain.User, error) {
	return s.switchUserStatus(ctx, "activate_user", ownerID, encodedID, domain.StatusActive)
}

// DeactivateUser suspends a client without losing their data.
func (s *Store) DeactivateUser(ctx context.Context, ownerID int64, encodedID string) (domain.User, error) {
	return s.switchUserStatus(ctx, "deactivate_user", ownerID, encodedID, domain.StatusDeactivated)
}

func (s *Store) switchUserStatus(ctx context.Context, op string, ownerID int64, encodedID, status string) (domain.User, error) {
	if err := requireOwner(op, ownerID); err != nil {
		return domain.User{}, err
	}

	id, err := relay.DecodeID(relay.KindUser, encodedID)
	if err != nil {
		return domain.User{}, err
	}
	if err := s.checkUserOwnership(ctx, id, ownerID); err != nil {
		return domain.User{}, err
	}

	if err := s.setUserStatus(ctx, id, status); err != nil {
		return domain.User{}, err
	}

	row, err := s.userByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	return mapUserRow(row), nil
}

func (s *Store) setUserStatus(ctx context.Context, id int64, status string) error {
	b := builder().
		Update("users").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", id)

	switch status {
	case domain.StatusDeactivated:
		b = b.Set("deactivated_at", squirrel.Expr("NOW()"))
	case domain.StatusActive:
		b = b.Set("deactivated_at", nil)
	case domain.StatusArchived:
		b = b.Set("archived_at", squirrel.Expr("NOW()"))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// ResendRegistrationEmail rotates a pending client's invitation token and
// sends a fresh email.
func (s *Store) ResendRegistrationEmail(ctx context.Context, ownerID int64, encodedID string) (domain.Result, error) {
	if err := requireOwner("resend_registration", ownerID); err != nil {
		return domain.Result{}, err
	}

	id, err := relay.DecodeID(relay.KindUser, encodedID)
	if err != nil {
		return domain.Result{}, err
	}
	if err := s.checkUserOwnership(ctx, id, ownerID); err != nil {
		return domain.Result{}, err
	}

	row, err := s.userByID(ctx, id)
	if err != nil {
		return domain.Result{}, err
	}
	if row.Status != domain.StatusPending {
		return domain.Result{}, domain.NewError("resend_registration", "users",
			fmt.Errorf("%w: account is not pending registration", domain.ErrConflict))
	}

	token, expires, err := newRegistrationToken()
	if err != nil {
		return domain.Result{}, err
	}

	query, args, err := builder().
		Update("users").
		Set("registration_token", token).
		Set("registration_token_expires_at", expires).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return domain.Result{}, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return domain.Result{}, err
	}

	mailer.Dispatch(s.mail, registrationMessage(row.Name, row.Email, token))

	return domain.Result{Success: true}, nil
}
