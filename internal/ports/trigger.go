package ports

import (
	"context"
)

// Trigger decides when pipeline runs happen
type Trigger interface {
	// Start begins scheduling runs; it does not block
	Start(ctx context.Context) error

	// Stop cancels any run in progress and waits for it to return
	Stop() error

	// Done is closed once the trigger will start no further runs
	Done() <-chan struct{}

	// Err returns the error of the last run, if the trigger reports one
	Err() error
}
