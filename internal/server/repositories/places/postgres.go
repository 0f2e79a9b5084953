package places

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/dbx"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `id, title, description, address, canonical_address, lat, lng, image_key, image_url, owner_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlace(row rowScanner) (*models.Place, error) {
	p := &models.Place{}
	var imageKey, imageURL string

	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Address,
		&p.Location.CanonicalAddress, &p.Location.Lat, &p.Location.Lng,
		&imageKey, &imageURL, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if imageKey != "" || imageURL != "" {
		p.Image = &models.Image{Key: imageKey, URL: imageURL}
	}
	return p, nil
}

func imageColumns(img *models.Image) (string, string) {
	if img == nil {
		return "", ""
	}
	return img.Key, img.URL
}

// Create inserts place, assigning an id when it has none. An owner that does
// not exist yields common.ErrorNotFound.
func (r *PostgresRepository) Create(ctx context.Context, place *models.Place) (*models.Place, error) {
	if place.ID == "" {
		place.ID = uuid.NewString()
	}
	imageKey, imageURL := imageColumns(place.Image)

	query :=
		`INSERT INTO places (id, title, description, address, canonical_address, lat, lng, image_key, image_url, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		place.ID, place.Title, place.Description, place.Address,
		place.Location.CanonicalAddress, place.Location.Lat, place.Location.Lng,
		imageKey, imageURL, place.OwnerID).Scan(&place.CreatedAt, &place.UpdatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}

	return place, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Place, error) {
	query := `SELECT ` + selectColumns + ` FROM places WHERE id = $1`

	p, err := scanPlace(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Place, error) {
	query := `SELECT ` + selectColumns + ` FROM places WHERE owner_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	result := []*models.Place{}
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Update writes the mutable fields of place in one statement. Ownership is
// never changed here.
func (r *PostgresRepository) Update(ctx context.Context, place *models.Place) (*models.Place, error) {
	imageKey, imageURL := imageColumns(place.Image)

	query :=
		`UPDATE places
		 SET title = $2, description = $3, image_key = $4, image_url = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		place.ID, place.Title, place.Description, imageKey, imageURL).Scan(&place.UpdatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}

	return place, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return dbx.MapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
