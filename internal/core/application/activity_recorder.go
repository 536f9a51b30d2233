package application

import (
	"context"
	"time"

	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
)

const recordTimeout = 5 * time.Second

type activityRecorder struct {
	repo domain.ActivityRepository
}

// NewActivityRecorder returns a listener that persists every activity of the
// wallet service in the given repository.
func NewActivityRecorder(repo domain.ActivityRepository) ActivityListener {
	return &activityRecorder{repo}
}

func (r *activityRecorder) OnActivity(activity domain.Activity) error {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	return r.repo.AddActivity(ctx, activity)
}
