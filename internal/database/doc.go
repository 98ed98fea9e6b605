// Package database persists backend snapshots in SurrealDB.
//
// The live state never leaves the processing loop. A cron job serializes it
// through the loop and hands the bytes to SnapshotStore.Save; on boot the
// server restores SnapshotStore.Latest when snapshots are enabled.
//
//	db := database.NewSurrealDB(cfg)
//	if err := db.Connect(ctx); err != nil { ... }
//	defer db.Close()
//	store := database.NewSnapshotStore(db, 24*time.Hour)
//
// Writes go through TxBuilder, which wraps statements in one
// BEGIN/COMMIT block and namespaces their variables.
//
// Errors wrap ErrNotFound, ErrConnection or ErrQuery; check them with
// errors.Is.
package database
