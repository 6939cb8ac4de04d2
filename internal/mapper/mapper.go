// Package mapper translates between the domain model and transfer objects.
// Every function here is pure: no store access, no clock, no side effects.
// The only failure mode is malformed input, reported as *ValidationError.
package mapper

import (
	"fmt"
	"strings"

	"userdir/internal/dto"
	"userdir/internal/model"
)

// ValidationError reports a transfer object that cannot be mapped onto the
// domain model, naming the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Profile maps a user onto its outbound transfer shape. It is total and
// deterministic: every valid user maps, and store-managed fields (ID,
// AvatarPath, CreatedAt, UpdatedAt) are dropped.
func Profile(u model.User) dto.UserProfile {
	return dto.UserProfile{
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}
}

// Profiles maps a slice of users, preserving order.
func Profiles(users []model.User) []dto.UserProfile {
	out := make([]dto.UserProfile, len(users))
	for i, u := range users {
		out[i] = Profile(u)
	}
	return out
}

// Entity maps a profile back onto the domain model. The mapping is partial:
// identity and the other store-managed fields are unknown on the inbound
// side, so when existing is non-nil they are carried over from it (merge).
// With a nil existing the result has no identity and is only suitable as
// input to a repository Create.
func Entity(p dto.UserProfile, existing *model.User) (model.User, error) {
	if err := validate(p.Username, p.Email); err != nil {
		return model.User{}, err
	}
	u := model.User{
		Username:    p.Username,
		Email:       p.Email,
		DisplayName: p.DisplayName,
	}
	if existing != nil {
		u.ID = existing.ID
		u.AvatarPath = existing.AvatarPath
		u.CreatedAt = existing.CreatedAt
		u.UpdatedAt = existing.UpdatedAt
	}
	return u, nil
}

// NewUser maps an inbound creation request onto an identity-less user.
func NewUser(c dto.CreateUser) (model.User, error) {
	if err := validate(c.Username, c.Email); err != nil {
		return model.User{}, err
	}
	return model.User{
		Username:    c.Username,
		Email:       c.Email,
		DisplayName: c.DisplayName,
	}, nil
}

// ApplyUpdate merges the set fields of an update over an existing user.
// Nil fields are left unchanged; store-managed fields are never touched.
func ApplyUpdate(u model.User, upd dto.UpdateUser) (model.User, error) {
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.DisplayName != nil {
		u.DisplayName = *upd.DisplayName
	}
	if err := validate(u.Username, u.Email); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func validate(username, email string) error {
	if strings.TrimSpace(username) == "" {
		return &ValidationError{Field: "username", Reason: "required"}
	}
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: "email", Reason: "required"}
	}
	// Minimal shape check only; full address validation belongs to the
	// boundary layer that owns the user-facing contract.
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return &ValidationError{Field: "email", Reason: "malformed address"}
	}
	return nil
}
