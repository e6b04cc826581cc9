package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Badger is an embedded cache backed by BadgerDB.
type Badger struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// NewBadger opens a badger cache at path, creating the directory if needed.
// An empty path opens an in-memory store.
func NewBadger(path string, logger *slog.Logger) (*Badger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0750); err != nil {
			return nil, fmt.Errorf("cache: create badger directory %s: %w", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logger.With("component", "badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open badger: %w", err)
	}
	return &Badger{db: db, logger: logger}, nil
}

func (b *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: badger get %s: %w", key, err)
	}
	return value, true, nil
}

func (b *Badger) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("cache: badger set %s: %w", key, err)
	}
	return nil
}

// Close runs a value log GC pass and closes the database.
func (b *Badger) Close() error {
	if !b.db.Opts().InMemory {
		if err := b.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			b.logger.Debug("badger value log gc skipped", "error", err)
		}
	}
	return b.db.Close()
}
