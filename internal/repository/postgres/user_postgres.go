package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"userdir/internal/dto"
	"userdir/internal/model"
	"userdir/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
// It uses database/sql with parameterized queries and contains no business
// logic. Driver failures are translated into the repository's typed errors
// before they leave this package.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = "id, username, email, display_name, avatar_path, created_at, updated_at"

// Create inserts a new user row. Identity and timestamps come from column
// defaults; the stored record is returned.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (username, email, display_name)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q, u.Username, u.Email, u.DisplayName)
	out, err := scanUser(row)
	if err != nil {
		return nil, translate("insert user", err)
	}
	return out, nil
}

// FindByID fetches a single user by its ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, translate("select user", err)
	}
	return u, nil
}

// List returns users using LIMIT/OFFSET pagination and a total count.
func (r *UserPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.User], error) {
	const qCount = `SELECT COUNT(*) FROM users`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, translate("count users", err)
	}

	const qList = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, translate("list users", err)
	}
	defer rows.Close()

	items := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.DisplayName,
			&u.AvatarPath,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, translate("scan user", err)
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list users", err)
	}

	return &repository.PageResult[model.User]{
		Items: items,
		Total: total,
	}, nil
}

// Update applies only the fields set on upd, building the SET clause from
// non-nil pointers. updated_at always advances so a successful update is
// observable.
func (r *UserPostgres) Update(ctx context.Context, id string, upd dto.UpdateUser) (*model.User, error) {
	if upd.IsZero() {
		return r.FindByID(ctx, id)
	}

	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.DisplayName != nil {
		add("display_name", *upd.DisplayName)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	q := fmt.Sprintf(
		"UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), userColumns,
	)
	u, err := scanUser(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, translate("update user", err)
	}
	return u, nil
}

// SetAvatarPath records the object-storage key of the user's avatar.
func (r *UserPostgres) SetAvatarPath(ctx context.Context, id, path string) (*model.User, error) {
	const q = `
		UPDATE users SET avatar_path = $1, updated_at = now()
		WHERE id = $2
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRowContext(ctx, q, path, id))
	if err != nil {
		return nil, translate("set avatar path", err)
	}
	return u, nil
}

// Delete removes a user by ID. A delete that matches no row is reported as
// repository.ErrNotFound rather than silently succeeding.
func (r *UserPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return translate("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate("delete user", err)
	}
	if n == 0 {
		return fmt.Errorf("delete user %s: %w", id, repository.ErrNotFound)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.DisplayName,
		&u.AvatarPath,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// translate maps driver errors onto the repository's typed taxonomy.
// Integrity-class failures (SQLSTATE 23xxx) become ErrConflict, a missing
// row becomes ErrNotFound, and connectivity failures become ErrUnavailable.
// Everything else is wrapped with the operation name and propagated.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return fmt.Errorf("%s: %w: %s", op, repository.ErrConflict, pgErr.Message)
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, repository.ErrUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
