// Package dto contains the transfer objects exposed across the service
// boundary. They are reshaped views of the domain model: constructed per
// request, discarded after use, and deliberately free of store-assigned
// fields (identity, timestamps, storage keys).
package dto

// UserProfile is the outbound user shape. It carries no id and no
// store-managed fields; see mapper.Profile.
type UserProfile struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// CreateUser is the inbound shape for registering a new user.
// Identity is absent; the record store assigns it on create.
type CreateUser struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// UpdateUser is the inbound shape for partial updates. All fields are
// pointers; nil means "leave unchanged", so callers only set what they want
// to modify and the repository builds the explicit SQL accordingly.
type UpdateUser struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
}

// IsZero reports whether the update carries no fields at all.
func (u UpdateUser) IsZero() bool {
	return u.Username == nil && u.Email == nil && u.DisplayName == nil
}
