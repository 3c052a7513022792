package booking

import (
	"context"
	"time"

	"github.com/example/kiosk-booking/internal/catalog"
)

// Gateway is the durable store of committed bookings. Insert must re-check
// the attendee cap, per-product uniqueness and slot capacity inside its own
// transaction boundary and return the matching rejection error when a
// concurrent commit got there first.
type Gateway interface {
	BookingsByUser(ctx context.Context, userID string) ([]Booking, error)
	CountsBySlot(ctx context.Context) (map[catalog.Key]int, error)
	Insert(ctx context.Context, b Booking) (Booking, error)
}

// Allocator decides booking requests: validate against the current
// catalogue, the attendee's existing bookings and slot occupancy, then hand
// the insert to the gateway for the atomic commit. It keeps no state of its
// own, so any number of instances can run against the same store.
type Allocator struct {
	Gateway Gateway

	// Now is the catalogue clock; nil means time.Now.
	Now func() time.Time
}

func (a *Allocator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// SlotStatus is one catalogue entry annotated for the requesting attendee.
type SlotStatus struct {
	Slot      catalog.Slot
	Occupancy int
	Bookable  bool
}

// ListAvailableSlots returns the full rolling catalogue with live occupancy
// and per-attendee bookability. Read-only.
func (a *Allocator) ListAvailableSlots(ctx context.Context, userID string) ([]SlotStatus, error) {
	existing, err := a.Gateway.BookingsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts, err := a.Gateway.CountsBySlot(ctx)
	if err != nil {
		return nil, err
	}

	underCap := HasCapacityForMore(existing)

	slots := catalog.Generate(a.now())
	out := make([]SlotStatus, 0, len(slots))
	for _, s := range slots {
		key := s.Key()
		occ := Occupancy(counts, key)
		out = append(out, SlotStatus{
			Slot:      s,
			Occupancy: occ,
			Bookable:  underCap && CanBookProduct(existing, s.Product) && occ < SlotCapacity,
		})
	}
	return out, nil
}

// Submit runs the decision for one booking request. The pre-checks run in
// order and short-circuit; passing them only qualifies the request for the
// gateway's transactional re-check, which is the authoritative one.
func (a *Allocator) Submit(ctx context.Context, userID string, key catalog.Key) (Booking, error) {
	slot, ok := catalog.Find(a.now(), key)
	if !ok {
		return Booking{}, ErrInvalidSlot
	}

	existing, err := a.Gateway.BookingsByUser(ctx, userID)
	if err != nil {
		return Booking{}, err
	}
	if !HasCapacityForMore(existing) {
		return Booking{}, ErrMaxBookingsReached
	}
	if !CanBookProduct(existing, slot.Product) {
		return Booking{}, ErrProductAlreadyBooked
	}

	counts, err := a.Gateway.CountsBySlot(ctx)
	if err != nil {
		return Booking{}, err
	}
	if IsFull(counts, key) {
		return Booking{}, ErrSlotFull
	}

	return a.Gateway.Insert(ctx, Booking{
		UserID:      userID,
		ProductName: slot.Product,
		SessionDate: slot.Date,
		StartTime:   slot.Start,
		EndTime:     slot.End,
	})
}
