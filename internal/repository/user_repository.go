package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/pkg/database"
)

const userColumns = `id, email, name, password, image, roles, is_blocked, provider, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	user := &domain.User{}
	var password, image sql.NullString
	var roles []string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&password,
		&image,
		pq.Array(&roles),
		&user.IsBlocked,
		&user.Provider,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if password.Valid {
		user.Password = &password.String
	}
	if image.Valid {
		user.Image = &image.String
	}
	user.Roles = toRoles(roles)

	return user, nil
}

func toRoles(values []string) []domain.Role {
	roles := make([]domain.Role, 0, len(values))
	for _, v := range values {
		roles = append(roles, domain.Role(v))
	}
	return roles
}

func fromRoles(roles []domain.Role) []string {
	values := make([]string, 0, len(roles))
	for _, r := range roles {
		values = append(values, string(r))
	}
	return values
}

func prepareUser(user *domain.User) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if len(user.Roles) == 0 {
		user.Roles = []domain.Role{domain.RoleUser}
	}
	if user.Provider == "" {
		user.Provider = domain.ProviderLocal
	}

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
}

// Create inserts a local user, taking over a federated record with the same email
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
			password = EXCLUDED.password,
			image = EXCLUDED.image,
			roles = EXCLUDED.roles,
			provider = EXCLUDED.provider,
			updated_at = EXCLUDED.updated_at
		WHERE users.provider <> 'local'
		RETURNING id, is_blocked, created_at
	`

	prepareUser(user)

	err := r.db.DB.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Password,
		user.Image,
		pq.Array(fromRoles(user.Roles)),
		user.IsBlocked,
		user.Provider,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID, &user.IsBlocked, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicate)
		}
		return mapError(err, "failed to create user")
	}

	return nil
}

// Upsert inserts a federated user or overwrites the federated user holding the
// same email. A local user with that email is left alone and yields ErrDuplicate.
func (r *userRepository) Upsert(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
			password = EXCLUDED.password,
			image = EXCLUDED.image,
			roles = EXCLUDED.roles,
			provider = EXCLUDED.provider,
			updated_at = EXCLUDED.updated_at
		WHERE users.provider <> 'local'
		RETURNING id, is_blocked, created_at
	`

	prepareUser(user)

	err := r.db.DB.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Password,
		user.Image,
		pq.Array(fromRoles(user.Roles)),
		user.IsBlocked,
		user.Provider,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID, &user.IsBlocked, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("local user with email %s already exists: %w", user.Email, ErrDuplicate)
		}
		return mapError(err, "failed to upsert user")
	}

	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, ErrNotFound)
		}
		return nil, mapError(err, "failed to get user by email")
	}

	return user, nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, mapError(err, "failed to get user by id")
	}

	return user, nil
}

// List returns all users, oldest first
func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`

	rows, err := r.db.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err, "failed to list users")
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Update applies the non-nil fields of update and returns the stored user
func (r *userRepository) Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	query := `
		UPDATE users
		SET name = COALESCE($2, name),
			password = COALESCE($3, password),
			image = CASE WHEN $4 THEN NULL ELSE COALESCE($5, image) END,
			is_blocked = COALESCE($6, is_blocked),
			updated_at = $7
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.DB.QueryRowContext(ctx, query,
		id,
		update.Name,
		update.Password,
		update.ClearImage,
		update.Image,
		update.IsBlocked,
		time.Now(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
		}
		return nil, mapError(err, "failed to update user")
	}

	return user, nil
}

// Delete deletes a user; refresh tokens and statistics go with it
func (r *userRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return mapError(err, "failed to delete user")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user with id %s not found: %w", id, ErrNotFound)
	}

	return nil
}
