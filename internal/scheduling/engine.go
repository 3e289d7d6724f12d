package scheduling

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine is the only component allowed to flip a slot's availability
// flag. It enforces that a slot hosts at most one active appointment:
// every flip happens inside the per-slot lock and the store-level flip
// itself is conditional, so two concurrent reservations of the same slot
// resolve as exactly one success and one ErrSlotUnavailable.
type Engine struct {
	slots  SlotStore
	locker Locker
	logger *zap.Logger
}

func NewEngine(slots SlotStore, locker Locker, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{slots: slots, locker: locker, logger: logger}
}

// Reserve marks the slot unavailable for the given dentist. The dentist
// check defends against stale client state: a client that booked off an
// outdated slot listing gets ErrDentistMismatch rather than a booking
// with inconsistent references.
func (e *Engine) Reserve(ctx context.Context, slotID, dentistID uuid.UUID) (*Slot, error) {
	var reserved *Slot

	err := e.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		slot, err := e.slots.GetSlot(lockCtx, slotID)
		if err != nil {
			return err
		}
		if slot.DentistID != dentistID {
			return ErrDentistMismatch
		}
		if !slot.Available {
			return ErrSlotUnavailable
		}

		updated, err := e.slots.AcquireSlot(lockCtx, slotID)
		if err != nil {
			return err
		}
		reserved = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("slot reserved",
		zap.String("slot_id", slotID.String()),
		zap.String("dentist_id", dentistID.String()),
	)
	return reserved, nil
}

// Release marks the slot available again. It is idempotent: releasing an
// already-available slot is a no-op, so compensation paths and
// cancellation can always call it safely.
func (e *Engine) Release(ctx context.Context, slotID uuid.UUID) error {
	err := e.locker.WithSlotLock(ctx, slotID, func(lockCtx context.Context) error {
		if _, err := e.slots.ReleaseSlot(lockCtx, slotID); err != nil {
			return fmt.Errorf("release slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("slot released", zap.String("slot_id", slotID.String()))
	return nil
}
