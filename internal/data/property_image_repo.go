package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/biz"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/hash"
	"github.com/bananahana720/PHX-houses-Dec-2025-sub010/internal/pkg/pagination"
)

type propertyImageRepo struct {
	data *Data
	log  *log.Helper
}

// NewPropertyImageRepo creates a new PropertyImageRepo.
func NewPropertyImageRepo(data *Data, logger log.Logger) biz.PropertyImageRepo {
	return &propertyImageRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

const imageColumns = `image_id, property_id, source, phash, dhash, content_hash, status, duplicate_of, registered_at, updated_at`

// Upsert implements biz.PropertyImageRepo.
func (r *propertyImageRepo) Upsert(ctx context.Context, img *biz.PropertyImage) error {
	_, err := r.data.Pool.Exec(ctx, `
		INSERT INTO property_images (`+imageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (image_id) DO UPDATE SET
			property_id = EXCLUDED.property_id,
			source = EXCLUDED.source,
			phash = EXCLUDED.phash,
			dhash = EXCLUDED.dhash,
			content_hash = EXCLUDED.content_hash,
			status = EXCLUDED.status,
			duplicate_of = EXCLUDED.duplicate_of,
			updated_at = EXCLUDED.updated_at`,
		img.ImageID,
		img.PropertyID,
		img.Source,
		int64(img.PHash),
		int64(img.DHash),
		img.ContentHash,
		string(img.Status),
		pgtype.Text{String: img.DuplicateOf, Valid: img.DuplicateOf != ""},
		img.RegisteredAt,
		img.UpdatedAt,
	)
	return err
}

// Get implements biz.PropertyImageRepo.
func (r *propertyImageRepo) Get(ctx context.Context, imageID string) (*biz.PropertyImage, error) {
	row := r.data.Pool.QueryRow(ctx, `
		SELECT `+imageColumns+` FROM property_images WHERE image_id = $1`, imageID)
	img, err := scanPropertyImage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return img, nil
}

// GetByContentHash implements biz.PropertyImageRepo.
func (r *propertyImageRepo) GetByContentHash(ctx context.Context, contentHash string) (*biz.PropertyImage, error) {
	row := r.data.Pool.QueryRow(ctx, `
		SELECT `+imageColumns+` FROM property_images
		WHERE content_hash = $1 AND status = $2
		ORDER BY registered_at LIMIT 1`,
		contentHash, string(biz.ImageStatusAccepted))
	img, err := scanPropertyImage(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return img, nil
}

// List implements biz.PropertyImageRepo.
func (r *propertyImageRepo) List(ctx context.Context, req *pagination.CursorRequest) (*pagination.CursorResponse[*biz.PropertyImage], error) {
	cursor, err := req.DecodedCursor()
	if err != nil {
		return nil, err
	}

	var rows pgx.Rows
	if cursor != nil {
		rows, err = r.data.Pool.Query(ctx, `
			SELECT `+imageColumns+` FROM property_images
			WHERE (registered_at, image_id) < ($1, $2)
			ORDER BY registered_at DESC, image_id DESC LIMIT $3`,
			cursor.RegisteredAt, cursor.ID, req.GetFetchLimit())
	} else {
		rows, err = r.data.Pool.Query(ctx, `
			SELECT `+imageColumns+` FROM property_images
			ORDER BY registered_at DESC, image_id DESC LIMIT $1`,
			req.GetFetchLimit())
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*biz.PropertyImage
	for rows.Next() {
		img, err := scanPropertyImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pagination.BuildCursorResponse(images, req.GetLimit(), func(img *biz.PropertyImage) *pagination.Cursor {
		return &pagination.Cursor{ID: img.ImageID, RegisteredAt: img.RegisteredAt}
	}), nil
}

// ListAccepted implements biz.PropertyImageRepo.
func (r *propertyImageRepo) ListAccepted(ctx context.Context) ([]*biz.PropertyImage, error) {
	rows, err := r.data.Pool.Query(ctx, `
		SELECT `+imageColumns+` FROM property_images
		WHERE status = $1 ORDER BY registered_at`,
		string(biz.ImageStatusAccepted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []*biz.PropertyImage
	for rows.Next() {
		img, err := scanPropertyImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// Count implements biz.PropertyImageRepo.
func (r *propertyImageRepo) Count(ctx context.Context, status biz.ImageStatus) (int64, error) {
	var count int64
	var err error
	if status == "" {
		err = r.data.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM property_images`).Scan(&count)
	} else {
		err = r.data.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM property_images WHERE status = $1`, string(status)).Scan(&count)
	}
	return count, err
}

// Delete implements biz.PropertyImageRepo.
func (r *propertyImageRepo) Delete(ctx context.Context, imageID string) error {
	_, err := r.data.Pool.Exec(ctx, `DELETE FROM property_images WHERE image_id = $1`, imageID)
	return err
}

func scanPropertyImage(row pgx.Row) (*biz.PropertyImage, error) {
	var (
		img         biz.PropertyImage
		phash       int64
		dhash       int64
		status      string
		duplicateOf pgtype.Text
	)
	err := row.Scan(
		&img.ImageID,
		&img.PropertyID,
		&img.Source,
		&phash,
		&dhash,
		&img.ContentHash,
		&status,
		&duplicateOf,
		&img.RegisteredAt,
		&img.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	img.PHash = hash.Fingerprint(phash)
	img.DHash = hash.Fingerprint(dhash)
	img.Status = biz.ImageStatus(status)
	img.DuplicateOf = duplicateOf.String
	return &img, nil
}
