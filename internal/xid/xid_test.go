package xid

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewHasPrefixAndUUID(t *testing.T) {
	id := New("mv")
	if !strings.HasPrefix(id, "mv-") {
		t.Fatalf("expected mv- prefix, got %q", id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, "mv-")); err != nil {
		t.Fatalf("expected uuid suffix, got %q: %v", id, err)
	}
}

func TestNewIsOrdered(t *testing.T) {
	prev := New("a")
	for i := 0; i < 50; i++ {
		next := New("a")
		if next <= prev {
			t.Fatalf("expected %q > %q", next, prev)
		}
		prev = next
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy unavailable")
}

func TestNewPanicsWithoutRandomness(t *testing.T) {
	uuid.SetRand(brokenReader{})
	defer uuid.SetRand(nil)

	defer func() {
		if recover() == nil {
			t.Fatalf("expected New to panic when the random source fails")
		}
	}()
	New("mv")
}
