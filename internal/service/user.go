package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"userdir/internal/dto"
	"userdir/internal/mapper"
	"userdir/internal/model"
	"userdir/internal/repository"
	"userdir/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrReaderNil  = errors.New("reader is nil")
)

// UserListResult is the service-level result for paginated user profiles.
type UserListResult struct {
	Items []dto.UserProfile `json:"data"`
	Total int               `json:"total"`
}

// UserService defines the use cases for the user directory. Inbound and
// outbound shapes are transfer objects; the domain model only crosses this
// boundary where callers need the store-assigned identity.
type UserService interface {
	// Register validates and persists a new user, returning the stored
	// record including its assigned identity.
	Register(ctx context.Context, in dto.CreateUser) (*model.User, error)

	// Get returns a single user by ID.
	Get(ctx context.Context, id string) (*model.User, error)

	// Profile returns the outbound transfer shape of a user.
	Profile(ctx context.Context, id string) (dto.UserProfile, error)

	// List returns user profiles using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*UserListResult, error)

	// Update validates and applies a partial update.
	Update(ctx context.Context, id string, upd dto.UpdateUser) (*model.User, error)

	// Remove deletes the user and, if present, its avatar object.
	Remove(ctx context.Context, id string) error

	// SetAvatar uploads the avatar image to object storage, records its
	// key on the user, and rolls the object back if the record store
	// update fails.
	SetAvatar(ctx context.Context, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.User, error)

	// AvatarURL returns a time-limited download URL for the user's avatar.
	AvatarURL(ctx context.Context, id string, expiry time.Duration) (string, error)
}

// userService is a concrete implementation of UserService.
type userService struct {
	store storage.Storage
	repo  repository.UserRepository
}

// NewUserService constructs a new UserService.
func NewUserService(store storage.Storage, repo repository.UserRepository) UserService {
	return &userService{store: store, repo: repo}
}

func (s *userService) Register(ctx context.Context, in dto.CreateUser) (*model.User, error) {
	u, err := mapper.NewUser(in)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.Create(ctx, &u)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *userService) Get(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	return s.repo.FindByID(ctx, id)
}

func (s *userService) Profile(ctx context.Context, id string) (dto.UserProfile, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return dto.UserProfile{}, err
	}
	return mapper.Profile(*u), nil
}

// List returns paginated profiles without exposing repository types.
func (s *userService) List(ctx context.Context, limit, offset int) (*UserListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &UserListResult{
		Items: mapper.Profiles(res.Items),
		Total: res.Total,
	}, nil
}

// Update validates the merged result before touching the store, so a
// malformed partial update is a mapper.ValidationError and never reaches
// the repository.
func (s *userService) Update(ctx context.Context, id string, upd dto.UpdateUser) (*model.User, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := mapper.ApplyUpdate(*existing, upd); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, upd)
}

// Remove deletes the record first, then cleans up the avatar object. The
// ordering guarantees no surviving record ever points at a destroyed
// object; a failed cleanup is reported to the caller but the user is gone
// either way.
func (s *userService) Remove(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if u.AvatarPath != "" {
		if err := s.store.Delete(ctx, u.AvatarPath); err != nil {
			return fmt.Errorf("user removed; delete avatar object: %w", err)
		}
	}
	return nil
}

func (s *userService) SetAvatar(ctx context.Context, id string, r io.Reader, originalFilename, contentType string, size int64) (*model.User, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if r == nil {
		return nil, ErrReaderNil
	}

	// The user must exist before we pay for the upload.
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(originalFilename)
	key := filepath.ToSlash(filepath.Join("avatars", uuid.New().String()+ext))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"user-id": id,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	updated, err := s.repo.SetAvatarPath(ctx, id, objInfo.Key)
	if err != nil {
		// Rollback: remove the freshly uploaded object.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("record avatar failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("record avatar failed: %w", err)
	}

	// Replaced avatars leave their old object behind; clean it up now that
	// the record points at the new key.
	if existing.AvatarPath != "" && existing.AvatarPath != objInfo.Key {
		if err := s.store.Delete(ctx, existing.AvatarPath); err != nil {
			return nil, fmt.Errorf("delete previous avatar: %w", err)
		}
	}
	return updated, nil
}

func (s *userService) AvatarURL(ctx context.Context, id string, expiry time.Duration) (string, error) {
	if id == "" {
		return "", ErrIDRequired
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if u.AvatarPath == "" {
		return "", fmt.Errorf("avatar: %w", repository.ErrNotFound)
	}
	return s.store.PresignGet(ctx, u.AvatarPath, expiry)
}
