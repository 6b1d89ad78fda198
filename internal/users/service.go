package users

import (
	"context"
)

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	store UserStore
}

// NewUserService creates a new user service instance
func NewUserService(store UserStore) *UserServiceImpl {
	return &UserServiceImpl{
		store: store,
	}
}

// CreateUser creates a new user. All three fields must be non-empty.
func (s *UserServiceImpl) CreateUser(ctx context.Context, req *CreateUserRequest) error {
	if err := requireFields(map[string]string{
		"userId": req.UserID,
		"name":   req.Name,
		"email":  req.Email,
	}); err != nil {
		return err
	}

	return s.store.CreateUser(ctx, &User{
		UserID: req.UserID,
		Name:   req.Name,
		Email:  req.Email,
	})
}

// GetUser returns ErrUserNotFound when the id is unknown
func (s *UserServiceImpl) GetUser(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, NewMissingFieldError("userId")
	}
	return s.store.GetUser(ctx, userID)
}

// UpdateUser overwrites name and email. No existence check is made.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID string, req *UpdateUserRequest) error {
	if err := requireFields(map[string]string{
		"userId": userID,
		"name":   req.Name,
		"email":  req.Email,
	}); err != nil {
		return err
	}
	return s.store.UpdateUser(ctx, userID, req.Name, req.Email)
}

// DeleteUser deletes a user; deleting an unknown id succeeds
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID string) error {
	if userID == "" {
		return NewMissingFieldError("userId")
	}
	return s.store.DeleteUser(ctx, userID)
}

// ListUsers returns every stored user
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]*User, error) {
	list, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*User{}
	}
	return list, nil
}

func requireFields(fields map[string]string) error {
	// fixed order so the reported field is deterministic
	for _, name := range []string{"userId", "name", "email"} {
		value, ok := fields[name]
		if ok && value == "" {
			return NewMissingFieldError(name)
		}
	}
	return nil
}
