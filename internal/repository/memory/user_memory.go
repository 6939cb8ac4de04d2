// Package memory provides an in-memory implementation of the user
// repository. It honors the same contract and error taxonomy as the
// PostgreSQL implementation and backs tests and local development where no
// database is available.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"userdir/internal/dto"
	"userdir/internal/model"
	"userdir/internal/repository"
)

// UserMemory is a mutex-guarded map store. Identity is assigned on Create
// and is immutable afterwards. Safe for concurrent use; consistency of
// concurrent updates to the same ID is last-write-wins, matching the
// "one call, one outcome" contract.
type UserMemory struct {
	mu      sync.RWMutex
	users   map[string]model.User
	byName  map[string]string
	byEmail map[string]string
	now     func() time.Time
}

// NewUserMemory creates an empty in-memory user repository.
func NewUserMemory() *UserMemory {
	return &UserMemory{
		users:   make(map[string]model.User),
		byName:  make(map[string]string),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.UserRepository = (*UserMemory)(nil)

// Create assigns a fresh UUID and timestamps, enforcing the same uniqueness
// rules the SQL schema declares.
func (r *UserMemory) Create(_ context.Context, u *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[u.Username]; ok {
		return nil, fmt.Errorf("insert user: %w: username taken", repository.ErrConflict)
	}
	if _, ok := r.byEmail[u.Email]; ok {
		return nil, fmt.Errorf("insert user: %w: email taken", repository.ErrConflict)
	}

	stored := *u
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now()
	stored.UpdatedAt = stored.CreatedAt

	r.users[stored.ID] = stored
	r.byName[stored.Username] = stored.ID
	r.byEmail[stored.Email] = stored.ID

	out := stored
	return &out, nil
}

func (r *UserMemory) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("select user: %w", repository.ErrNotFound)
	}
	out := u
	return &out, nil
}

// List orders newest-first like the SQL implementation and slices the page
// out of a stable snapshot, so re-issuing offsets restarts the sequence.
// Negative offsets and limits are clamped to zero; a caller handing those to
// the port gets an empty or full page, never a panic.
func (r *UserMemory) List(_ context.Context, pq repository.PageQuery) (*repository.PageResult[model.User], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	start := pq.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if pq.Limit > 0 && start+pq.Limit < end {
		end = start + pq.Limit
	}

	return &repository.PageResult[model.User]{
		Items: all[start:end],
		Total: total,
	}, nil
}

func (r *UserMemory) Update(_ context.Context, id string, upd dto.UpdateUser) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("update user: %w", repository.ErrNotFound)
	}

	next := u
	if upd.Username != nil {
		if owner, taken := r.byName[*upd.Username]; taken && owner != id {
			return nil, fmt.Errorf("update user: %w: username taken", repository.ErrConflict)
		}
		next.Username = *upd.Username
	}
	if upd.Email != nil {
		if owner, taken := r.byEmail[*upd.Email]; taken && owner != id {
			return nil, fmt.Errorf("update user: %w: email taken", repository.ErrConflict)
		}
		next.Email = *upd.Email
	}
	if upd.DisplayName != nil {
		next.DisplayName = *upd.DisplayName
	}
	if !upd.IsZero() {
		next.UpdatedAt = r.now()
	}

	delete(r.byName, u.Username)
	delete(r.byEmail, u.Email)
	r.byName[next.Username] = id
	r.byEmail[next.Email] = id
	r.users[id] = next

	out := next
	return &out, nil
}

func (r *UserMemory) SetAvatarPath(_ context.Context, id, path string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("set avatar path: %w", repository.ErrNotFound)
	}
	u.AvatarPath = path
	u.UpdatedAt = r.now()
	r.users[id] = u

	out := u
	return &out, nil
}

func (r *UserMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return fmt.Errorf("delete user %s: %w", id, repository.ErrNotFound)
	}
	delete(r.users, id)
	delete(r.byName, u.Username)
	delete(r.byEmail, u.Email)
	return nil
}
