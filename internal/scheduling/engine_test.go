package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestSlot(dentistID uuid.UUID, day time.Time, hour int) *Slot {
	return &Slot{
		ID:        uuid.New(),
		DentistID: dentistID,
		Date:      day,
		StartTime: time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC),
		EndTime:   time.Date(day.Year(), day.Month(), day.Day(), hour+1, 0, 0, 0, time.UTC),
		Available: true,
	}
}

func mustSaveSlot(t *testing.T, store *MemoryStore, slot *Slot) *Slot {
	t.Helper()
	saved, err := store.SaveSlot(context.Background(), slot)
	if err != nil {
		t.Fatalf("save slot: %v", err)
	}
	return saved
}

func TestReserveMarksSlotUnavailable(t *testing.T) {
	store := NewMemoryStore()
	engine := NewEngine(store, NewLocalLocker(), nil)

	dentistID := uuid.New()
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	slot := mustSaveSlot(t, store, newTestSlot(dentistID, day, 9))

	reserved, err := engine.Reserve(context.Background(), slot.ID, dentistID)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if reserved.Available {
		t.Fatal("reserved slot should not be available")
	}

	stored, err := store.GetSlot(context.Background(), slot.ID)
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if stored.Available {
		t.Fatal("stored slot should not be available after reserve")
	}
}

func TestReserveFailures(t *testing.T) {
	store := NewMemoryStore()
	engine := NewEngine(store, NewLocalLocker(), nil)
	ctx := context.Background()

	dentistID := uuid.New()
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	slot := mustSaveSlot(t, store, newTestSlot(dentistID, day, 9))

	if _, err := engine.Reserve(ctx, uuid.New(), dentistID); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("unknown slot: got %v, want ErrSlotNotFound", err)
	}

	if _, err := engine.Reserve(ctx, slot.ID, uuid.New()); !errors.Is(err, ErrDentistMismatch) {
		t.Fatalf("wrong dentist: got %v, want ErrDentistMismatch", err)
	}

	if _, err := engine.Reserve(ctx, slot.ID, dentistID); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := engine.Reserve(ctx, slot.ID, dentistID); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("second reserve: got %v, want ErrSlotUnavailable", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	engine := NewEngine(store, NewLocalLocker(), nil)
	ctx := context.Background()

	dentistID := uuid.New()
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	slot := mustSaveSlot(t, store, newTestSlot(dentistID, day, 9))

	if _, err := engine.Reserve(ctx, slot.ID, dentistID); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	if err := engine.Release(ctx, slot.ID); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := engine.Release(ctx, slot.ID); err != nil {
		t.Fatalf("second release should be a no-op: %v", err)
	}

	// Slot is bookable again.
	if _, err := engine.Reserve(ctx, slot.ID, dentistID); err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
}

func TestConcurrentReserveHasExactlyOneWinner(t *testing.T) {
	store := NewMemoryStore()
	engine := NewEngine(store, NewLocalLocker(), nil)
	ctx := context.Background()

	dentistID := uuid.New()
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	slot := mustSaveSlot(t, store, newTestSlot(dentistID, day, 9))

	const callers = 32

	var wg sync.WaitGroup
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Reserve(ctx, slot.ID, dentistID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotUnavailable):
			losses++
		default:
			t.Fatalf("unexpected reserve error: %v", err)
		}
	}

	if wins != 1 {
		t.Fatalf("got %d winners, want exactly 1", wins)
	}
	if losses != callers-1 {
		t.Fatalf("got %d losers, want %d", losses, callers-1)
	}
}
