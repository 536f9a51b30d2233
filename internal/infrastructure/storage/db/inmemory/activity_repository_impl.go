package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
)

type activityInmemoryStore struct {
	activities map[string]domain.Activity
	order      []string
	locker     *sync.RWMutex
}

type activityRepositoryImpl struct {
	store *activityInmemoryStore
}

// NewActivityRepositoryImpl returns a new inmemory ActivityRepository
// implementation.
func NewActivityRepositoryImpl() domain.ActivityRepository {
	return &activityRepositoryImpl{
		store: &activityInmemoryStore{
			activities: make(map[string]domain.Activity),
			order:      make([]string, 0),
			locker:     &sync.RWMutex{},
		},
	}
}

func (r *activityRepositoryImpl) AddActivity(
	_ context.Context, activity domain.Activity,
) error {
	r.store.locker.Lock()
	defer r.store.locker.Unlock()

	if _, ok := r.store.activities[activity.ID]; ok {
		return nil
	}
	r.store.activities[activity.ID] = activity
	r.store.order = append(r.store.order, activity.ID)
	return nil
}

func (r *activityRepositoryImpl) GetActivity(
	_ context.Context, id string,
) (*domain.Activity, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	activity, ok := r.store.activities[id]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	return &activity, nil
}

func (r *activityRepositoryImpl) ListActivities(
	_ context.Context, wallet domain.WalletName, page domain.Page,
) ([]domain.Activity, error) {
	r.store.locker.RLock()
	defer r.store.locker.RUnlock()

	offset := page.Offset()
	activities := make([]domain.Activity, 0, page.Size)
	for i := len(r.store.order) - 1; i >= 0; i-- {
		activity := r.store.activities[r.store.order[i]]
		if wallet != "" && activity.Wallet != wallet {
			continue
		}
		if offset > 0 {
			offset--
			continue
		}
		activities = append(activities, activity)
		if len(activities) >= page.Size {
			break
		}
	}
	return activities, nil
}

func (r *activityRepositoryImpl) Close() {}
