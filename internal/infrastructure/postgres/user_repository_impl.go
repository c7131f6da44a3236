package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/user-account-api/internal/domain/entity"
	"github.com/oksasatya/user-account-api/internal/domain/repository"
)

const (
	pgUniqueViolation   = "23505"
	pgInvalidTextFormat = "22P02"
)

const userColumns = `id::text, name, email, password_hash, profile_image_public_id, profile_image_url, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password,
		&u.ProfileImage.PublicID, &u.ProfileImage.SecureURL,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// absent folds "no rows" and malformed ids into the (nil, nil) result.
func absent(u *entity.User, err error) (*entity.User, error) {
	if err == nil {
		return u, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextFormat {
		return nil, nil
	}
	return nil, err
}

// validID reports whether id can be a users.id. pgx rejects a malformed uuid
// while encoding, before the server sees it.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return absent(scanUser(row))
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, nil
	}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return absent(scanUser(row))
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, profile_image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.Name, u.Email, u.Password, entity.DefaultProfileImageURL)

	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("postgres: insert user: %w", err)
	}
	*u = *created
	return nil
}

func (r *UserRepository) UpdateProfileImage(ctx context.Context, id, publicID, secureURL string) (*entity.User, error) {
	if !validID(id) {
		return nil, nil
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET profile_image_public_id = $1, profile_image_url = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+userColumns,
		publicID, secureURL, id)
	return absent(scanUser(row))
}

func (r *UserRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

func (r *UserRepository) ListPage(ctx context.Context, skip, limit int64) ([]entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, email, profile_image_public_id, profile_image_url, created_at, updated_at
		FROM users
		ORDER BY created_at, id
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list users: %w", err)
	}
	defer rows.Close()

	users := []entity.User{}
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email,
			&u.ProfileImage.PublicID, &u.ProfileImage.SecureURL,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
