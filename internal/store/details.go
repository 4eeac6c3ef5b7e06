package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/media"
	"github.com/eleven-am/coach/internal/relay"
)

type userDetailsRow struct {
	ID             int64      `db:"id"`
	UserID         int64      `db:"user_id"`
	Birthday       *time.Time `db:"birthday"`
	Height         *float64   `db:"height"`
	Weight         *float64   `db:"weight"`
	Sex            *string    `db:"sex"`
	PhotographyURL *string    `db:"photography_url"`
	PhotographyKey *string    `db:"photography_key"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

const userDetailsColumns = "id, user_id, birthday, height, weight, sex, " +
	"photography_url, photography_key, created_at, updated_at"

func mapUserDetailsRow(row userDetailsRow) domain.UserDetails {
	return domain.UserDetails{
		ID:             relay.EncodeID(relay.KindUserDetails, row.ID),
		UserID:         relay.EncodeID(relay.KindUser, row.UserID),
		Birthday:       row.Birthday,
		Height:         row.Height,
		Weight:         row.Weight,
		Sex:            row.Sex,
		PhotographyURL: row.PhotographyURL,
		PhotographyKey: row.PhotographyKey,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// UserDetails fetches a client's biometric profile, nil when none has been
// recorded yet.
func (s *Store) UserDetails(ctx context.Context, ownerID int64, encodedUserID string) (*domain.UserDetails, error) {
	if err := requireOwner("user_details", ownerID); err != nil {
		return nil, err
	}

	userID, err := relay.DecodeID(relay.KindUser, encodedUserID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUserOwnership(ctx, userID, ownerID); err != nil {
		return nil, err
	}

	row, err := s.userDetailsByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	details := mapUserDetailsRow(row)
	return &details, nil
}

func (s *Store) userDetailsByUser(ctx context.Context, userID int64) (userDetailsRow, error) {
	query, args, err := builder().
		Select(userDetailsColumns).
		From("user_details").
		Where("user_id = ?", userID).
		ToSql()
	if err != nil {
		return userDetailsRow{}, err
	}

	var row userDetailsRow
	err = s.db.GetContext(ctx, &row, query, args...)
	return row, err
}

// UpdateUserDetails upserts a client's biometric profile. One row per user;
// repeated updates overwrite in place.
func (s *Store) UpdateUserDetails(ctx context.Context, ownerID int64, encodedUserID string, input domain.UserDetailsInput) (domain.UserDetails, error) {
	if err := requireOwner("update_user_details", ownerID); err != nil {
		return domain.UserDetails{}, err
	}

	userID, err := relay.DecodeID(relay.KindUser, encodedUserID)
	if err != nil {
		return domain.UserDetails{}, err
	}
	if err := s.checkUserOwnership(ctx, userID, ownerID); err != nil {
		return domain.UserDetails{}, err
	}

	query, args, err := builder().
		Insert("user_details").
		Columns("user_id", "birthday", "height", "weight", "sex").
		Values(userID, input.Birthday, input.Height, input.Weight, input.Sex).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET " +
			"birthday = EXCLUDED.birthday, " +
			"height = EXCLUDED.height, " +
			"weight = EXCLUDED.weight, " +
			"sex = EXCLUDED.sex, " +
			"updated_at = NOW() " +
			"RETURNING " + userDetailsColumns).
		ToSql()
	if err != nil {
		return domain.UserDetails{}, err
	}

	var row userDetailsRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.UserDetails{}, err
	}
	return mapUserDetailsRow(row), nil
}

// UploadProfilePhoto replaces a client's profile photo. The new asset is
// uploaded first, the profile is pointed at it, and only then is the old
// asset destroyed, so a failed upload never leaves the profile without a
// photo.
func (s *Store) UploadProfilePhoto(ctx context.Context, ownerID int64, encodedUserID string, file *domain.Upload) (domain.UserDetails, error) {
	if err := requireOwner("upload_profile_photo", ownerID); err != nil {
		return domain.UserDetails{}, err
	}
	if file == nil {
		return domain.UserDetails{}, domain.NewError("upload_profile_photo", "user_details",
			fmt.Errorf("%w: file is required", domain.ErrInvalidArgument))
	}

	userID, err := relay.DecodeID(relay.KindUser, encodedUserID)
	if err != nil {
		return domain.UserDetails{}, err
	}
	if err := s.checkUserOwnership(ctx, userID, ownerID); err != nil {
		return domain.UserDetails{}, err
	}

	var oldKey string
	if existing, err := s.userDetailsByUser(ctx, userID); err == nil && existing.PhotographyKey != nil {
		oldKey = *existing.PhotographyKey
	}

	obj, err := s.media.Upload(ctx, fmt.Sprintf("users/%d", userID), file.Reader, media.UploadOptions{
		ContentType: file.ContentType,
	})
	if err != nil {
		return domain.UserDetails{}, err
	}

	query, args, err := builder().
		Insert("user_details").
		Columns("user_id", "photography_url", "photography_key").
		Values(userID, obj.URL, obj.Key).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET " +
			"photography_url = EXCLUDED.photography_url, " +
			"photography_key = EXCLUDED.photography_key, " +
			"updated_at = NOW() " +
			"RETURNING " + userDetailsColumns).
		ToSql()
	if err != nil {
		return domain.UserDetails{}, err
	}

	var row userDetailsRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		return domain.UserDetails{}, err
	}

	if oldKey != "" && oldKey != obj.Key {
		if err := s.media.Destroy(ctx, oldKey); err != nil {
			s.log.WithField("key", oldKey).Error("failed to destroy replaced profile photo: %v", err)
		}
	}

	return mapUserDetailsRow(row), nil
}

// UserPhoto resolves a client's profile photo, nil when none is set.
func (s *Store) UserPhoto(ctx context.Context, encodedUserID string) (*domain.Photo, error) {
	userID, err := relay.DecodeID(relay.KindUser, encodedUserID)
	if err != nil {
		return nil, err
	}

	row, err := s.userDetailsByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if row.PhotographyURL == nil {
		return nil, nil
	}

	photo := domain.Photo{URL: *row.PhotographyURL}
	if row.PhotographyKey != nil {
		photo.Key = *row.PhotographyKey
	}
	return &photo, nil
}
