// Package lib provides a Go SDK for running tasktrack batches in process.
//
// This package allows applications to run and observe simulated task batches
// without running the tasktrack server. It is useful for demos, load
// generators for progress UIs and tests.
//
// # Quick Start
//
// Create a tracker, start the batch and watch it until every task finishes:
//
//	tracker, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracker.Close()
//
//	tracker.Start(ctx)
//	tracker.Watch(ctx, func(s lib.BatchStatus) error {
//	    fmt.Printf("%d/%d done\n", s.Completed+s.Failed, s.Total)
//	    if s.Done() {
//	        return errors.New("done")
//	    }
//	    return nil
//	})
//
// # Batches
//
// A tracker always has one live batch of [TrackerConfig].BatchSize tasks. Each
// task goes from pending to in progress and ends completed or failed, a
// failure is a regular outcome reported on the task state. [Tracker.Reset]
// replaces the batch with a fresh one, tasks still running on the old batch
// are abandoned and never touch the new one.
//
// # Storage
//
// The batch is kept in memory by default. Set [Config].Storage to
// [StorageSQLite] to keep it on a SQLite database:
//
//	tracker, _ := lib.New(ctx, lib.Config{
//	    Storage: lib.StorageSQLite,
//	    DBPath:  "/tmp/tasktrack.db",
//	})
//
// # HTTP
//
// [Tracker.Handler] returns the same HTTP and WebSocket API the tasktrack
// server exposes, so a tracker can be mounted on any HTTP server.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: There is no batch.
//   - [ErrNotValid]: Invalid input.
//   - [ErrBatchAlreadyRunning]: The batch has running tasks.
//
// # Thread Safety
//
// A [Tracker] is safe for concurrent use from multiple goroutines.
package lib
