package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/example/kiosk-booking/internal/catalog"
	"github.com/example/kiosk-booking/internal/db"
)

// Repo is the Postgres-backed gateway for demo bookings.
type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) BookingsByUser(ctx context.Context, userID string) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `
SELECT id::text, user_id::text, product_name, to_char(session_date,'YYYY-MM-DD'), start_time, end_time, created_at
FROM demo_bookings
WHERE user_id=$1
ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.ProductName, &b.SessionDate, &b.StartTime, &b.EndTime, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return out, nil
}

func (r *Repo) CountsBySlot(ctx context.Context) (map[catalog.Key]int, error) {
	rows, err := r.db.Query(ctx, `
SELECT product_name, to_char(session_date,'YYYY-MM-DD'), start_time, count(*)
FROM demo_bookings
GROUP BY product_name, session_date, start_time`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()

	counts := make(map[catalog.Key]int)
	for rows.Next() {
		var key catalog.Key
		var n int
		if err := rows.Scan(&key.Product, &key.Date, &key.Start, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return counts, nil
}

// Insert commits a booking. The allocator's pre-checks have already passed by
// the time we get here, but they ran outside any transaction, so all three
// guards are re-run inside one SERIALIZABLE transaction with the INSERT.
// Two racers for the last seat cannot both commit: one of them either sees
// the other's row or fails with a serialization error at commit.
func (r *Repo) Insert(ctx context.Context, b Booking) (Booking, error) {
	sessionDate, err := time.Parse("2006-01-02", b.SessionDate)
	if err != nil {
		return Booking{}, fmt.Errorf("parse session date %q: %w", b.SessionDate, err)
	}

	out := b
	out.ID = uuid.NewString()

	txErr := r.db.Serializable(ctx, func(tx pgx.Tx) error {
		var total int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM demo_bookings WHERE user_id=$1`,
			b.UserID).Scan(&total); err != nil {
			return err
		}
		if total >= MaxBookingsPerUser {
			return ErrMaxBookingsReached
		}

		var dup bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM demo_bookings WHERE user_id=$1 AND product_name=$2)`,
			b.UserID, b.ProductName).Scan(&dup); err != nil {
			return err
		}
		if dup {
			return ErrProductAlreadyBooked
		}

		var occupancy int
		if err := tx.QueryRow(ctx,
			`SELECT count(*) FROM demo_bookings WHERE product_name=$1 AND session_date=$2 AND start_time=$3`,
			b.ProductName, sessionDate, b.StartTime).Scan(&occupancy); err != nil {
			return err
		}
		if occupancy >= SlotCapacity {
			return ErrSlotFull
		}

		return tx.QueryRow(ctx, `
INSERT INTO demo_bookings (id, user_id, product_name, session_date, start_time, end_time)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING created_at`,
			out.ID, b.UserID, b.ProductName, sessionDate, b.StartTime, b.EndTime,
		).Scan(&out.CreatedAt)
	})
	if txErr != nil {
		return Booking{}, mapInsertErr(txErr)
	}
	return out, nil
}

func mapInsertErr(err error) error {
	switch {
	case errors.Is(err, ErrMaxBookingsReached),
		errors.Is(err, ErrProductAlreadyBooked),
		errors.Is(err, ErrSlotFull):
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation on (user_id, product_name)
			return ErrProductAlreadyBooked
		case "40001": // serialization_failure: a racing commit won; caller may resubmit
			return fmt.Errorf("%w: serialization conflict: %v", ErrPersistence, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
