package users

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const postgresResource = "users"

// UserSchema represents the users table schema in PostgreSQL.
// The key column is stored lower-cased as "userid".
type UserSchema struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	UserID string `bun:"userid,pk,type:text"`
	Name   string `bun:"name,notnull,type:text"`
	Email  string `bun:"email,notnull,type:text"`
}

// PostgresStore implements UserStore on top of a relational table
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{
		db: db,
	}
}

// OpenPostgres opens a pooled bun.DB for the given DSN. The pool is shared by all requests.
func OpenPostgres(dsn string, maxConnections int) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if maxConnections > 0 {
		sqldb.SetMaxOpenConns(maxConnections)
	}
	return bun.NewDB(sqldb, pgdialect.New())
}

// EnsureSchema issues CREATE TABLE IF NOT EXISTS for the users table
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*UserSchema)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return NewStorageSchemaError(postgresResource, err)
	}
	return nil
}

// CreateUser inserts a row. An existing userid violates the primary key.
func (s *PostgresStore) CreateUser(ctx context.Context, user *User) error {
	schema := UserToUserSchema(user)

	_, err := s.db.NewInsert().
		Model(&schema).
		Exec(ctx)
	if err != nil {
		return classifyPostgresError("create_user", err)
	}
	return nil
}

// GetUser returns ErrUserNotFound when no row matches
func (s *PostgresStore) GetUser(ctx context.Context, userID string) (*User, error) {
	var schema UserSchema
	err := s.db.NewSelect().
		Model(&schema).
		Where("userid = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, classifyPostgresError("get_user", err)
	}

	return UserSchemaToUser(schema), nil
}

// UpdateUser sets name and email. Zero affected rows is not an error.
func (s *PostgresStore) UpdateUser(ctx context.Context, userID, name, email string) error {
	_, err := s.db.NewUpdate().
		Model((*UserSchema)(nil)).
		Set("name = ?", name).
		Set("email = ?", email).
		Where("userid = ?", userID).
		Exec(ctx)
	if err != nil {
		return classifyPostgresError("update_user", err)
	}
	return nil
}

// DeleteUser hard-deletes the row if present
func (s *PostgresStore) DeleteUser(ctx context.Context, userID string) error {
	_, err := s.db.NewDelete().
		Model((*UserSchema)(nil)).
		Where("userid = ?", userID).
		Exec(ctx)
	if err != nil {
		return classifyPostgresError("delete_user", err)
	}
	return nil
}

// ListUsers returns all rows ordered by userid
func (s *PostgresStore) ListUsers(ctx context.Context) ([]*User, error) {
	var schemas []UserSchema
	err := s.db.NewSelect().
		Model(&schemas).
		Order("userid ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, classifyPostgresError("list_users", err)
	}

	result := make([]*User, 0, len(schemas))
	for _, schema := range schemas {
		result = append(result, UserSchemaToUser(schema))
	}
	return result, nil
}

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageConnectionError("ping", postgresResource, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func classifyPostgresError(operation string, err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
		return NewStorageConstraintError(operation, postgresResource, err)
	}
	return NewStorageQueryError(operation, postgresResource, err)
}

// Helper conversion functions
func UserSchemaToUser(schema UserSchema) *User {
	return &User{
		UserID: schema.UserID,
		Name:   schema.Name,
		Email:  schema.Email,
	}
}

func UserToUserSchema(user *User) UserSchema {
	return UserSchema{
		UserID: user.UserID,
		Name:   user.Name,
		Email:  user.Email,
	}
}
