package domain

import (
	"context"
	"errors"
)

// ErrActivityNotFound ...
var ErrActivityNotFound = errors.New("activity not found")

// ActivityRepository is the abstraction for any kind of database intended to
// persist the activity of the wallet service.
type ActivityRepository interface {
	// AddActivity adds the given activity. Adding an already existing one is a
	// no-op.
	AddActivity(ctx context.Context, activity Activity) error
	// GetActivity returns the activity with the given id.
	GetActivity(ctx context.Context, id string) (*Activity, error)
	// ListActivities returns the most recent activities first, optionally
	// filtered by wallet when the given name is not empty.
	ListActivities(
		ctx context.Context, wallet WalletName, page Page,
	) ([]Activity, error)
	Close()
}
