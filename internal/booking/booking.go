package booking

import (
	"errors"
	"time"

	"github.com/example/kiosk-booking/internal/catalog"
)

// Booking is a committed demo-session seat. Rows are insert-only: there is
// no cancellation or edit path in this system.
type Booking struct {
	ID          string
	UserID      string
	ProductName string
	SessionDate string // YYYY-MM-DD
	StartTime   string // HH:MM
	EndTime     string // HH:MM
	CreatedAt   time.Time
}

func (b Booking) SlotKey() catalog.Key {
	return catalog.Key{Product: b.ProductName, Date: b.SessionDate, Start: b.StartTime}
}

// Rejection reasons. Each failed allocator check resolves to exactly one of
// these; ErrPersistence is the only retryable kind.
var (
	ErrInvalidSlot          = errors.New("slot not in current catalogue")
	ErrMaxBookingsReached   = errors.New("maximum demo bookings reached")
	ErrProductAlreadyBooked = errors.New("product demo already booked")
	ErrSlotFull             = errors.New("session fully booked")
	ErrPersistence          = errors.New("persistence failure")
)

// Retryable reports whether the caller may resubmit the same request.
// Business-rule rejections are final for the current state; only gateway
// faults are worth retrying.
func Retryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}
