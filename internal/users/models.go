package users

// User is the single record managed by the service. The JSON shape is the same
// regardless of which backend produced it.
type User struct {
	UserID string `json:"userId" dynamodbav:"userId"`
	Name   string `json:"name" dynamodbav:"name"`
	Email  string `json:"email" dynamodbav:"email"`
}

// CreateUserRequest represents the request to create a user
type CreateUserRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// UpdateUserRequest carries the mutable fields of a user
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
