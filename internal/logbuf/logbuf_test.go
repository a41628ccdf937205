package logbuf

import (
	"fmt"
	"testing"

	"relaychat-backend/internal/models"
)

func TestAppendAndRecent(t *testing.T) {
	b := New(10)

	for i := 0; i < 3; i++ {
		b.Append(models.LevelInfo, fmt.Sprintf("entry %d", i))
	}

	recent := b.Recent(50)
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	if recent[0].Message != "entry 2" {
		t.Errorf("expected newest first, got %q", recent[0].Message)
	}
	if recent[2].Message != "entry 0" {
		t.Errorf("expected oldest last, got %q", recent[2].Message)
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	b := New(100)
	for i := 0; i < 80; i++ {
		b.Append(models.LevelInfo, fmt.Sprintf("entry %d", i))
	}

	recent := b.Recent(50)
	if len(recent) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(recent))
	}
	if recent[0].Message != "entry 79" {
		t.Errorf("expected newest entry first, got %q", recent[0].Message)
	}
}

func TestCapacityEviction(t *testing.T) {
	b := New(5)
	for i := 0; i < 12; i++ {
		b.Append(models.LevelInfo, fmt.Sprintf("entry %d", i))
	}

	if b.Len() != 5 {
		t.Fatalf("expected buffer capped at 5, got %d", b.Len())
	}

	recent := b.Recent(5)
	if recent[0].Message != "entry 11" {
		t.Errorf("expected newest entry retained, got %q", recent[0].Message)
	}
	if recent[4].Message != "entry 7" {
		t.Errorf("expected oldest surviving entry to be 'entry 7', got %q", recent[4].Message)
	}
}

func TestNeverExceedsDefaultCapacity(t *testing.T) {
	b := New(0)
	for i := 0; i < DefaultCapacity+500; i++ {
		b.Append(models.LevelInfo, "x")
	}
	if b.Len() != DefaultCapacity {
		t.Fatalf("expected %d entries, got %d", DefaultCapacity, b.Len())
	}
}

func TestRecentErrorsFiltersLevelAndAuthNoise(t *testing.T) {
	b := New(20)
	b.Append(models.LevelInfo, "user registered")
	b.Append(models.LevelError, "relay request failed")
	b.Append(models.LevelError, "Login failed for user bob: Invalid credentials")
	b.Append(models.LevelWarn, "slow upstream")
	b.Append(models.LevelError, "upstream returned non-JSON")

	errs := b.RecentErrors(50)
	if len(errs) != 2 {
		t.Fatalf("expected 2 error entries, got %d", len(errs))
	}
	if errs[0].Message != "upstream returned non-JSON" {
		t.Errorf("unexpected first error: %q", errs[0].Message)
	}
	if errs[1].Message != "relay request failed" {
		t.Errorf("unexpected second error: %q", errs[1].Message)
	}
}

func TestSubscribeReceivesAppends(t *testing.T) {
	b := New(10)
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Append(models.LevelInfo, "hello", WithAction("test"))

	entry := <-ch
	if entry.Message != "hello" {
		t.Errorf("expected 'hello', got %q", entry.Message)
	}
	if entry.Action != "test" {
		t.Errorf("expected action 'test', got %q", entry.Action)
	}
}
