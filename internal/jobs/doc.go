// Package jobs runs the background work around the processing loop.
//
// Jobs never touch the state directly. They only post messages or run
// read closures through the loop:
//
//   - TickDriver posts service.Tick on a fixed interval, which drives the
//     24 hour reminders and login token expiry
//   - SnapshotJob serializes the state on a cron schedule
//     (github.com/robfig/cron/v3) and saves it to a SnapshotSaver
//
// Both follow the same lifecycle: construct, Start, Stop. Errors are logged
// and the job keeps running.
package jobs
