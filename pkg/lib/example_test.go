package lib_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/tasktrack/pkg/lib"
)

// This example shows how to run a batch and wait until all its tasks finish.
func Example_wait() {
	ctx := context.Background()

	tracker, err := lib.New(ctx, lib.Config{
		Tracker: &lib.TrackerConfig{
			BatchSize:       5,
			Steps:           10,
			MinDuration:     10 * time.Millisecond,
			MaxDuration:     20 * time.Millisecond,
			FailureChance:   0,
			PublishInterval: 10 * time.Millisecond,
		},
	})
	if err != nil {
		panic(err)
	}
	defer tracker.Close()

	n, err := tracker.Start(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Started: %d\n", n)

	if err := tracker.Wait(ctx); err != nil {
		panic(err)
	}

	status, err := tracker.Status(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Completed: %d/%d\n", status.Completed, status.Total)

	// Output:
	// Started: 5
	// Completed: 5/5
}

// This example shows how starting a batch that is running fails.
func Example_alreadyRunning() {
	ctx := context.Background()

	tracker, err := lib.New(ctx, lib.Config{
		Tracker: &lib.TrackerConfig{
			BatchSize:       2,
			Steps:           1,
			MinDuration:     time.Second,
			MaxDuration:     time.Second,
			FailureChance:   0,
			PublishInterval: time.Second,
		},
	})
	if err != nil {
		panic(err)
	}
	defer tracker.Close()

	_, _ = tracker.Start(ctx)
	_, err = tracker.Start(ctx)
	fmt.Println(errors.Is(err, lib.ErrBatchAlreadyRunning))

	// Output:
	// true
}
