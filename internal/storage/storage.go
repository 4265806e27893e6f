package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"

	"github.com/hailam/attackmap/internal/fixture"
)

// Storage keys. A fixture lives under keyFixturePrefix followed by the
// big-endian xxhash64 of its canonical FEN.
const (
	keyFixturePrefix = "fixture/"
)

// ErrKeyCollision is returned by Put when a different FEN already occupies
// the digest slot of the fixture being stored.
var ErrKeyCollision = errors.New("storage: fixture key collision")

// record is the stored form of a fixture.
type record struct {
	Canonical string          `json:"canonical"`
	Fixture   fixture.Fixture `json:"fixture"`
	Stored    time.Time       `json:"stored"`
}

// FixtureStore wraps BadgerDB for persistent fixture storage.
type FixtureStore struct {
	db  *badger.DB
	log logr.Logger
}

// Open opens (or creates) a fixture store in dir.
func Open(dir string, log logr.Logger) (*FixtureStore, error) {
	return open(badger.DefaultOptions(dir), log)
}

// OpenInMemory opens a store that keeps everything in memory.
func OpenInMemory(log logr.Logger) (*FixtureStore, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log logr.Logger) (*FixtureStore, error) {
	opts = opts.WithLogger(badgerLogger{log: log.WithName("badger")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", opts.Dir, err)
	}
	log.V(1).Info("fixture store opened", "dir", opts.Dir, "inMemory", opts.InMemory)

	return &FixtureStore{db: db, log: log}, nil
}

// Close closes the database
func (s *FixtureStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// canonicalFEN collapses runs of whitespace so that "... w - - " and
// "... w - -" address the same record.
func canonicalFEN(fen string) string {
	return strings.Join(strings.Fields(fen), " ")
}

func fixtureKey(canonical string) []byte {
	return binary.BigEndian.AppendUint64([]byte(keyFixturePrefix), xxhash.Sum64String(canonical))
}

// Put stores f under its FEN, replacing any earlier fixture for the same
// position.
func (s *FixtureStore) Put(f fixture.Fixture) error {
	canonical := canonicalFEN(f.FEN)
	key := fixtureKey(canonical)

	data, err := json.Marshal(record{Canonical: canonical, Fixture: f, Stored: time.Now()})
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case err == badger.ErrKeyNotFound:
		case err != nil:
			return err
		default:
			var prev record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &prev)
			}); err != nil {
				return err
			}
			if prev.Canonical != canonical {
				return fmt.Errorf("%w: %q and %q", ErrKeyCollision, prev.Canonical, canonical)
			}
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("storage: put %q: %w", f.FEN, err)
	}
	return nil
}

// PutAll stores fixtures in a single write batch. Unlike Put it does not
// check for digest collisions.
func (s *FixtureStore) PutAll(fixtures []fixture.Fixture) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	now := time.Now()
	for _, f := range fixtures {
		canonical := canonicalFEN(f.FEN)
		data, err := json.Marshal(record{Canonical: canonical, Fixture: f, Stored: now})
		if err != nil {
			return err
		}
		if err := wb.Set(fixtureKey(canonical), data); err != nil {
			return fmt.Errorf("storage: batch put %q: %w", f.FEN, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("storage: batch flush: %w", err)
	}
	s.log.V(1).Info("stored fixtures", "count", len(fixtures))
	return nil
}

// Get loads the fixture stored for fen. The boolean is false when no
// fixture for that position exists.
func (s *FixtureStore) Get(fen string) (fixture.Fixture, bool, error) {
	canonical := canonicalFEN(fen)
	var (
		rec   record
		found bool
	)

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fixtureKey(canonical))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return err
		}
		found = rec.Canonical == canonical
		return nil
	})
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("storage: get %q: %w", fen, err)
	}
	if !found {
		return fixture.Fixture{}, false, nil
	}
	return rec.Fixture, true, nil
}

// Delete removes the fixture stored for fen, if any.
func (s *FixtureStore) Delete(fen string) error {
	canonical := canonicalFEN(fen)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(fixtureKey(canonical))
	})
	if err != nil {
		return fmt.Errorf("storage: delete %q: %w", fen, err)
	}
	return nil
}

// All returns every stored fixture in key order.
func (s *FixtureStore) All() ([]fixture.Fixture, error) {
	var out []fixture.Fixture

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyFixturePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("key %x: %w", it.Item().Key(), err)
			}
			out = append(out, rec.Fixture)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Size returns the on-disk size of the LSM tree and value log in bytes.
// It is zero for in-memory stores and lags recent writes.
func (s *FixtureStore) Size() int64 {
	lsm, vlog := s.db.Size()
	return lsm + vlog
}

// badgerLogger routes badger's log output through logr.
type badgerLogger struct {
	log logr.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(nil, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, args...)), "level", "warning")
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.V(2).Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.V(3).Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
