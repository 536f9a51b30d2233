package dbbadger

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/btc-wallet-adapter/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const (
	activityDir    = "activity"
	activitySeqKey = "activity_seq"
)

// activityRecord adds an insertion sequence to the activity so that listing
// stays ordered even for activities sharing the same timestamp.
type activityRecord struct {
	domain.Activity
	Seq uint64
}

type activityRepositoryImpl struct {
	store  *badgerhold.Store
	seq    *badger.Sequence
	stopGC func()
}

// NewActivityRepositoryImpl opens (or creates if not exists) the activity
// store in a dedicated subdirectory of the given base dir. An empty base dir
// makes the store in-memory.
func NewActivityRepositoryImpl(
	baseDbDir string, logger badger.Logger,
) (domain.ActivityRepository, error) {
	var dbDir string
	if len(baseDbDir) > 0 {
		dbDir = filepath.Join(baseDbDir, activityDir)
	}

	store, stopGC, err := createDb(dbDir, logger)
	if err != nil {
		return nil, fmt.Errorf("opening activity db: %w", err)
	}

	seq, err := store.Badger().GetSequence([]byte(activitySeqKey), 100)
	if err != nil {
		stopGC()
		store.Close()
		return nil, fmt.Errorf("opening activity sequence: %w", err)
	}

	return &activityRepositoryImpl{store, seq, stopGC}, nil
}

func (r *activityRepositoryImpl) AddActivity(
	_ context.Context, activity domain.Activity,
) error {
	if activity.ID == "" {
		return ErrActivityInvalidRequest
	}

	seq, err := r.seq.Next()
	if err != nil {
		return err
	}

	record := activityRecord{activity, seq}
	if err := r.store.Insert(activity.ID, &record); err != nil {
		if err == badgerhold.ErrKeyExists {
			return nil
		}
		return err
	}
	return nil
}

func (r *activityRepositoryImpl) GetActivity(
	_ context.Context, id string,
) (*domain.Activity, error) {
	var record activityRecord
	if err := r.store.Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrActivityNotFound
		}
		return nil, err
	}

	return &record.Activity, nil
}

func (r *activityRepositoryImpl) ListActivities(
	_ context.Context, wallet domain.WalletName, page domain.Page,
) ([]domain.Activity, error) {
	query := &badgerhold.Query{}
	if wallet != "" {
		query = badgerhold.Where("Wallet").Eq(wallet)
	}
	query = query.SortBy("Seq").Reverse().Skip(page.Offset()).Limit(page.Size)

	var records []activityRecord
	if err := r.store.Find(&records, query); err != nil {
		return nil, err
	}

	activities := make([]domain.Activity, 0, len(records))
	for _, record := range records {
		activities = append(activities, record.Activity)
	}
	return activities, nil
}

func (r *activityRepositoryImpl) Close() {
	r.stopGC()
	if err := r.seq.Release(); err != nil {
		log.WithError(err).Warn("failed to release activity sequence")
	}
	r.store.Close()
}
