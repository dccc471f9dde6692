package credentials

import (
	"errors"
	"sync"
	"testing"
)

func TestNewSetDropsEmptyKeys(t *testing.T) {
	t.Parallel()

	set, err := NewSet("first", "", "  ", "second")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 keys, got %d", set.Len())
	}

	if _, err := NewSet("", "   "); err == nil {
		t.Fatal("expected error for empty set")
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	t.Parallel()

	set, err := NewSet("first", "second")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key, index := set.Current()
	if key != "first" || index != 0 {
		t.Fatalf("unexpected initial state: %s/%d", key, index)
	}

	key, index, err = set.Advance(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "second" || index != 1 {
		t.Fatalf("expected second key, got %s/%d", key, index)
	}

	// A second failure against the already-rotated key must not advance.
	key, index, err = set.Advance(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "second" || index != 1 {
		t.Fatalf("expected stale advance to return current key, got %s/%d", key, index)
	}

	if _, _, err := set.Advance(1); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestAdvanceConcurrent(t *testing.T) {
	t.Parallel()

	set, err := NewSet("first", "second", "third")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Many workers observe quota exhaustion on key 0 at once; only one
	// rotation may happen.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := set.Advance(0); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	key, index := set.Current()
	if key != "second" || index != 1 {
		t.Fatalf("expected exactly one rotation, got %s/%d", key, index)
	}
}
