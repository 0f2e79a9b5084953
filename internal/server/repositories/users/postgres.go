package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/dbx"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user, assigning an id when it has none. A duplicate email
// yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	imageKey, imageURL := imageColumns(user.Image)

	query :=
		`INSERT INTO users (id, name, email, password_hash, image_key, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, imageKey, imageURL).Scan(&user.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}

	user.PlaceIDs = []string{}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, image_key, image_url, created_at FROM users
		 WHERE id = $1
		 `
	user, err := r.getOne(ctx, query, id)
	if err != nil {
		return nil, err
	}

	if user.PlaceIDs, err = r.PlaceIDs(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail does not load the place-id set; it serves credential checks.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, image_key, image_url, created_at FROM users
		 WHERE email = $1
		 `
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.User, error) {
	user := &models.User{}
	var imageKey, imageURL string

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &imageKey, &imageURL, &user.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}

	user.Image = imageFromColumns(imageKey, imageURL)
	return user, nil
}

// List returns every user with its place-id set, oldest first. Password
// hashes are not selected.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT u.id, u.name, u.email, u.image_key, u.image_url, u.created_at, up.place_id
		 FROM users u
		 LEFT JOIN user_places up ON up.user_id = u.id
		 ORDER BY u.created_at, u.id
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	result := []*models.User{}
	var current *models.User

	for rows.Next() {
		var (
			id, name, email    string
			imageKey, imageURL string
			placeID            sql.NullString
			user               models.User
		)
		if err := rows.Scan(&id, &name, &email, &imageKey, &imageURL, &user.CreatedAt, &placeID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		if current == nil || current.ID != id {
			user.ID, user.Name, user.Email = id, name, email
			user.Image = imageFromColumns(imageKey, imageURL)
			user.PlaceIDs = []string{}
			current = &user
			result = append(result, current)
		}
		if placeID.Valid {
			current.PlaceIDs = append(current.PlaceIDs, placeID.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// AddPlace puts placeID into the user's place-id set. Adding an id that is
// already present is a no-op. An unknown user yields common.ErrorNotFound.
func (r *PostgresRepository) AddPlace(ctx context.Context, userID, placeID string) error {
	query :=
		`INSERT INTO user_places (user_id, place_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, placeID); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

// RemovePlace takes placeID out of the user's place-id set. It fails with
// common.ErrorNotFound when the id was not in the set.
func (r *PostgresRepository) RemovePlace(ctx context.Context, userID, placeID string) error {
	query :=
		`DELETE FROM user_places
		 WHERE user_id = $1 AND place_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, userID, placeID)
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

func (r *PostgresRepository) PlaceIDs(ctx context.Context, userID string) ([]string, error) {
	query :=
		`SELECT place_id FROM user_places
		 WHERE user_id = $1
		 ORDER BY place_id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

func imageColumns(img *models.Image) (string, string) {
	if img == nil {
		return "", ""
	}
	return img.Key, img.URL
}

func imageFromColumns(key, url string) *models.Image {
	if key == "" && url == "" {
		return nil
	}
	return &models.Image{Key: key, URL: url}
}
