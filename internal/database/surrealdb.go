package database

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB is the snapshot store's connection to SurrealDB over websocket RPC
type SurrealDB struct {
	config Config
	conn   *surrealdb.DB
}

// NewSurrealDB creates an unconnected client for cfg
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

// Connect dials the endpoint, signs in and selects the namespace and database
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := s.config.Endpoint()
	conn, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnection, endpoint, err)
	}
	if err := s.setup(ctx, conn); err != nil {
		_ = conn.Close(ctx)
		return err
	}
	s.conn = conn
	return nil
}

func (s *SurrealDB) setup(ctx context.Context, conn *surrealdb.DB) error {
	auth := &surrealdb.Auth{Username: s.config.User, Password: s.config.Password}
	if _, err := conn.SignIn(ctx, auth); err != nil {
		return fmt.Errorf("%w: sign in as %s: %v", ErrConnection, s.config.User, err)
	}
	if err := conn.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		return fmt.Errorf("%w: use %s/%s: %v", ErrConnection, s.config.Namespace, s.config.Database, err)
	}
	return nil
}

// Close drops the connection. It is safe to call when never connected.
func (s *SurrealDB) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close(context.Background())
}

// Ping asks the server for its version
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.conn == nil {
		return ErrConnection
	}
	if _, err := s.conn.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// statements runs query and returns the result of every statement. The
// first failed statement fails the whole call.
func (s *SurrealDB) statements(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.conn == nil {
		return nil, ErrConnection
	}
	results, err := surrealdb.Query[interface{}](ctx, s.conn, query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if results == nil {
		return nil, nil
	}

	out := make([]interface{}, 0, len(*results))
	for i, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, fmt.Errorf("%w: statement %d: %s", ErrQuery, i+1, r.Error.Message)
			}
			return nil, fmt.Errorf("%w: statement %d: status %s", ErrQuery, i+1, r.Status)
		}
		out = append(out, r.Result)
	}
	return out, nil
}

// QueryOne returns the first record of the first statement
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.statements(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	rows, ok := results[0].([]interface{})
	if !ok {
		return results[0], nil
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Execute runs a query and discards its results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.statements(ctx, query, vars)
	return err
}
