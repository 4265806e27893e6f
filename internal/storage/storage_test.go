package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-logr/logr"

	"github.com/hailam/attackmap/internal/board"
	"github.com/hailam/attackmap/internal/fixture"
)

func generate(t *testing.T, fen string) fixture.Fixture {
	t.Helper()
	f, err := fixture.Generate(fen)
	if err != nil {
		t.Fatalf("Generate(%q): %v", fen, err)
	}
	return f
}

func TestFixtureStore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, logr.Discard())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	start := generate(t, board.StartFEN)
	empty := generate(t, "8/8/8/8/8/8/8/8 w - - ")

	t.Run("Missing", func(t *testing.T) {
		_, ok, err := s.Get(board.StartFEN)
		if err != nil || ok {
			t.Errorf("Get on empty store = %v, %v", ok, err)
		}
	})

	t.Run("PutGet", func(t *testing.T) {
		if err := s.Put(start); err != nil {
			t.Fatal(err)
		}
		got, ok, err := s.Get(board.StartFEN)
		if err != nil || !ok {
			t.Fatalf("Get = %v, %v", ok, err)
		}
		if got != start {
			t.Errorf("Get = %+v, want %+v", got, start)
		}
	})

	t.Run("WhitespaceInsensitive", func(t *testing.T) {
		if err := s.Put(empty); err != nil {
			t.Fatal(err)
		}
		got, ok, err := s.Get("8/8/8/8/8/8/8/8  w - -")
		if err != nil || !ok {
			t.Fatalf("Get = %v, %v", ok, err)
		}
		if got.FEN != empty.FEN {
			t.Errorf("FEN = %q, want %q", got.FEN, empty.FEN)
		}
	})

	t.Run("All", func(t *testing.T) {
		all, err := s.All()
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 2 {
			t.Errorf("All returned %d fixtures, want 2", len(all))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := s.Delete(board.StartFEN); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := s.Get(board.StartFEN); ok {
			t.Error("fixture still present after Delete")
		}
		if err := s.Delete("8/8/8/8/8/8/8/8 b - - 0 1"); err != nil {
			t.Errorf("Delete of a missing fixture: %v", err)
		}
	})

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen and check the surviving fixture persisted.
	s, err = Open(dir, logr.Discard())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, ok, err := s.Get(empty.FEN)
	if err != nil || !ok || got != empty {
		t.Errorf("after reopen Get = %+v, %v, %v", got, ok, err)
	}
	if s.Size() < 0 {
		t.Errorf("Size = %d", s.Size())
	}
}

func TestPutAll(t *testing.T) {
	s, err := OpenInMemory(logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var fixtures []fixture.Fixture
	for _, fen := range fixture.DefaultSuite {
		fixtures = append(fixtures, generate(t, fen))
	}
	if err := s.PutAll(fixtures); err != nil {
		t.Fatal(err)
	}

	all, err := s.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(fixtures) {
		t.Fatalf("All returned %d fixtures, want %d", len(all), len(fixtures))
	}
	for _, want := range fixtures {
		got, ok, err := s.Get(want.FEN)
		if err != nil || !ok || got != want {
			t.Errorf("Get(%q) = %+v, %v, %v", want.FEN, got, ok, err)
		}
	}
}

func TestPutDetectsCollision(t *testing.T) {
	s, err := OpenInMemory(logr.Discard())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	start := generate(t, board.StartFEN)
	other := generate(t, "8/8/8/8/8/8/8/8 w - - 0 1")

	// Plant a record for another position under the start position's key.
	data := []byte(`{"canonical":"` + other.FEN + `","fixture":{"fen":"` + other.FEN + `"}}`)
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(fixtureKey(canonicalFEN(start.FEN)), data)
	}); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.Get(start.FEN); err != nil || ok {
		t.Errorf("Get returned a foreign record: %v, %v", ok, err)
	}
	if err := s.Put(start); !errors.Is(err, ErrKeyCollision) {
		t.Errorf("Put error = %v, want ErrKeyCollision", err)
	}
}

func TestDataPaths(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_DATA_HOME only applies on Linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if dataDir != filepath.Join(base, appName) {
		t.Errorf("GetDataDir = %s", dataDir)
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if _, err := os.Stat(dbDir); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}
}
