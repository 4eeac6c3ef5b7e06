package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eleven-am/coach/internal/domain"
	"github.com/eleven-am/coach/internal/media"
)

type photoRow struct {
	URL string `db:"photography_url"`
	Key string `db:"photography_key"`
}

// photoFor returns the photo attached to a row, or nil when there is none.
func (s *Store) photoFor(ctx context.Context, q Querier, model string, modelID int64) (*domain.Photo, error) {
	query, args, err := builder().
		Select("photography_url", "photography_key").
		From("photos").
		Where("model = ?", model).
		Where("model_id = ?", modelID).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row photoRow
	if err := q.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Photo{URL: row.URL, Key: row.Key}, nil
}

// upsertPhoto writes the (model, model_id) photo row, replacing any previous
// reference.
func (s *Store) upsertPhoto(ctx context.Context, q Querier, model string, modelID int64, url, key string) error {
	query, args, err := builder().
		Insert("photos").
		Columns("model", "model_id", "photography_url", "photography_key").
		Values(model, modelID, url, key).
		Suffix("ON CONFLICT (model, model_id) DO UPDATE SET " +
			"photography_url = EXCLUDED.photography_url, " +
			"photography_key = EXCLUDED.photography_key, " +
			"updated_at = NOW()").
		ToSql()
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, query, args...)
	return err
}

// attachUpload stores the file in the media store and points the row's photo
// at it, destroying the previously attached asset if there was one. Runs after
// the owning mutation has committed; callers log failures instead of
// surfacing them.
func (s *Store) attachUpload(ctx context.Context, model string, modelID int64, up *domain.Upload) error {
	old, err := s.photoFor(ctx, s.db, model, modelID)
	if err != nil {
		return err
	}

	obj, err := s.media.Upload(ctx, fmt.Sprintf("%s/%d", model, modelID), up.Reader, media.UploadOptions{
		ContentType: up.ContentType,
	})
	if err != nil {
		return err
	}

	if err := s.upsertPhoto(ctx, s.db, model, modelID, obj.URL, obj.Key); err != nil {
		return err
	}

	if old != nil && old.Key != "" && old.Key != obj.Key {
		if err := s.media.Destroy(ctx, old.Key); err != nil {
			s.log.WithField("key", old.Key).Error("failed to destroy replaced photo: %v", err)
		}
	}
	return nil
}

// attachReference records an already-uploaded asset against a row without
// touching the media store.
func (s *Store) attachReference(ctx context.Context, model string, modelID int64, photo domain.PhotoInput) error {
	return s.upsertPhoto(ctx, s.db, model, modelID, photo.URL, photo.Key)
}

// removePhoto deletes a row's photo record and its stored asset. Absent
// photos are a no-op.
func (s *Store) removePhoto(ctx context.Context, model string, modelID int64) error {
	existing, err := s.photoFor(ctx, s.db, model, modelID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	query, args, err := builder().
		Delete("photos").
		Where("model = ?", model).
		Where("model_id = ?", modelID).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	if existing.Key != "" {
		if err := s.media.Destroy(ctx, existing.Key); err != nil {
			s.log.WithField("key", existing.Key).Error("failed to destroy photo asset: %v", err)
		}
	}
	return nil
}
