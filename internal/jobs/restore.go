package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forgo/gather/internal/database"
	"github.com/forgo/gather/internal/service"
)

// SnapshotLoader returns the newest saved snapshot
type SnapshotLoader interface {
	Latest(ctx context.Context) ([]byte, error)
}

// Restore loads the newest snapshot into a state. It returns a nil state
// when nothing was ever saved. Any other failure is an error: booting empty
// would let the snapshot job overwrite the data and prune the last good
// copy.
func Restore(ctx context.Context, store SnapshotLoader, logger *slog.Logger) (*service.State, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := store.Latest(ctx)
	if errors.Is(err, database.ErrNotFound) {
		logger.Info("no snapshot found, starting empty")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	state, err := service.RestoreState(data)
	if err != nil {
		return nil, err
	}
	logger.Info("restored snapshot",
		slog.Int("users", len(state.Users)),
		slog.Int("groups", len(state.Groups)),
	)
	return state, nil
}
