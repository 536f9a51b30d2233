package dbbadger

import (
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const valueLogGCInterval = 30 * time.Minute

// createDb opens the store. For a persistent store it also starts the
// periodic value log gc, the returned func stops it and is safe to call more
// than once.
func createDb(
	dbDir string, logger badger.Logger,
) (*badgerhold.Store, func(), error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, nil, err
	}

	if isInMemory {
		return db, func() {}, nil
	}

	ticker := time.NewTicker(valueLogGCInterval)
	done := make(chan struct{})
	go runValueLogGC(db.Badger(), ticker.C, done)

	once := &sync.Once{}
	stop := func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
	return db, stop, nil
}

// runValueLogGC runs the gc at every tick until done is closed.
func runValueLogGC(
	db *badger.DB, ticks <-chan time.Time, done <-chan struct{},
) {
	for {
		select {
		case <-done:
			return
		case <-ticks:
			if err := db.RunValueLogGC(0.5); err != nil &&
				err != badger.ErrNoRewrite {
				log.WithError(err).Warn("activity db value log gc")
			}
		}
	}
}
