package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/webstarter/authkit/internal/common"
	"github.com/webstarter/authkit/internal/dbx"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique-constraint errors.
const uniqueViolation = "23505"

// PostgresRegistry stores identities in the users table.
type PostgresRegistry struct {
	db dbx.DBTX
}

func NewPostgresRegistry(db dbx.DBTX) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

func (r *PostgresRegistry) Create(ctx context.Context, identity *Identity, secretHash string) (*Identity, error) {
	query := `INSERT INTO users (id, email, name, avatar_url, role, password_hash)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, email, name, avatar_url, role, created_at, updated_at`

	id := identity.ID
	if id == "" {
		id = uuid.NewString()
	}
	role := identity.Role
	if role == "" {
		role = RoleUser
	}

	out := &Identity{}
	var name, avatar sql.NullString
	err := r.db.QueryRowContext(ctx, query,
		id, NormalizeEmail(identity.Email), identity.Name, identity.AvatarURL, role, secretHash).
		Scan(&out.ID, &out.Email, &name, &avatar, &out.Role, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	out.Name = name.String
	out.AvatarURL = avatar.String
	return out, nil
}

func (r *PostgresRegistry) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	query := `SELECT id, email, name, avatar_url, role, created_at, updated_at FROM users
	          WHERE email = $1`
	return r.scanIdentity(r.db.QueryRowContext(ctx, query, NormalizeEmail(email)))
}

func (r *PostgresRegistry) GetByID(ctx context.Context, id string) (*Identity, error) {
	query := `SELECT id, email, name, avatar_url, role, created_at, updated_at FROM users
	          WHERE id = $1`
	return r.scanIdentity(r.db.QueryRowContext(ctx, query, id))
}

// Update applies the patch through one fixed parameterized statement;
// COALESCE keeps columns whose patch field is nil.
func (r *PostgresRegistry) Update(ctx context.Context, id string, p Patch) (*Identity, error) {
	query := `UPDATE users
	          SET name       = COALESCE($2, name),
	              avatar_url = COALESCE($3, avatar_url),
	              role       = COALESCE($4, role),
	              updated_at = now()
	          WHERE id = $1
	          RETURNING id, email, name, avatar_url, role, created_at, updated_at`

	var role *string
	if p.Role != nil {
		s := string(*p.Role)
		role = &s
	}
	return r.scanIdentity(r.db.QueryRowContext(ctx, query, id, p.Name, p.AvatarURL, role))
}

func (r *PostgresRegistry) secretHash(ctx context.Context, id string) (string, error) {
	var hash string
	err := r.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return hash, nil
}

func (r *PostgresRegistry) setSecretHash(ctx context.Context, id string, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRegistry) scanIdentity(row *sql.Row) (*Identity, error) {
	out := &Identity{}
	var name, avatar sql.NullString
	err := row.Scan(&out.ID, &out.Email, &name, &avatar, &out.Role, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	out.Name = name.String
	out.AvatarURL = avatar.String
	return out, nil
}
