package database

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultSnapshotRetention is how long old snapshots are kept
const DefaultSnapshotRetention = 24 * time.Hour

// SnapshotStore keeps serialized backend state in the snapshot table
type SnapshotStore struct {
	db        Database
	retention time.Duration
	clock     func() time.Time
}

// NewSnapshotStore creates a store. A zero retention keeps a day of
// snapshots; the newest one is never pruned.
func NewSnapshotStore(db Database, retention time.Duration) *SnapshotStore {
	if retention <= 0 {
		retention = DefaultSnapshotRetention
	}
	return &SnapshotStore{db: db, retention: retention, clock: time.Now}
}

const (
	insertSnapshot = `CREATE snapshot SET taken_at = <datetime> $taken_at, size = $size, data = $data`
	pruneSnapshots = `DELETE snapshot WHERE taken_at < <datetime> $before`
	latestSnapshot = `SELECT data, taken_at FROM snapshot ORDER BY taken_at DESC LIMIT 1`
)

// Save writes data and prunes snapshots older than the retention
func (s *SnapshotStore) Save(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return errors.New("empty snapshot")
	}
	now := s.clock().UTC()

	err := NewTxBuilder().
		Add(insertSnapshot, map[string]interface{}{
			"taken_at": now.Format(time.RFC3339Nano),
			"size":     len(data),
			"data":     string(data),
		}).
		Add(pruneSnapshots, map[string]interface{}{
			"before": now.Add(-s.retention).Format(time.RFC3339Nano),
		}).
		Execute(ctx, s.db)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot, or ErrNotFound when there is none
func (s *SnapshotStore) Latest(ctx context.Context) ([]byte, error) {
	record, err := s.db.QueryOne(ctx, latestSnapshot, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	fields, ok := record.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: unexpected snapshot record %T", ErrQuery, record)
	}
	data, ok := fields["data"].(string)
	if !ok || data == "" {
		return nil, fmt.Errorf("%w: snapshot has no data", ErrQuery)
	}
	return []byte(data), nil
}

// Ping checks that the snapshot database answers
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
