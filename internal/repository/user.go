package repository

import (
	"context"

	"userdir/internal/dto"
	"userdir/internal/model"
)

// UserRepository defines data access for users, independent of storage
// technology. No business logic here — strictly persistence operations.
// All methods report failures through the typed errors in this package.
type UserRepository interface {
	// Create persists a new user. The input carries no ID; the store
	// assigns identity and timestamps, and the returned user includes
	// them. Returns ErrConflict when username or email is already taken.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByID returns a user by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// List returns a paginated list of users and the total row count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.User], error)

	// Update applies the set fields of upd to the user with the given ID
	// and returns the stored result. Unknown IDs return ErrNotFound,
	// never a silent no-op; uniqueness violations return ErrConflict.
	Update(ctx context.Context, id string, upd dto.UpdateUser) (*model.User, error)

	// SetAvatarPath records the object-storage key of the user's avatar.
	SetAvatarPath(ctx context.Context, id, path string) (*model.User, error)

	// Delete removes a user by ID. Returns ErrNotFound if no row was
	// deleted.
	Delete(ctx context.Context, id string) error
}
