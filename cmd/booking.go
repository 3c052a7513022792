package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/kiosk-booking/internal/booking"
	"github.com/example/kiosk-booking/internal/catalog"
	"github.com/example/kiosk-booking/internal/config"
	"github.com/example/kiosk-booking/internal/db"
	"github.com/example/kiosk-booking/internal/migrate"
)

func newBookingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "booking",
		Short: "Manage demo-session bookings (non-UI)",
	}
	cmd.AddCommand(newBookingSlotsCmd())
	cmd.AddCommand(newBookingCreateCmd())
	cmd.AddCommand(newBookingListCmd())
	return cmd
}

func openAllocator(ctx context.Context) (*booking.Allocator, func(), error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}
	return &booking.Allocator{Gateway: booking.NewRepo(d)}, d.Close, nil
}

func newBookingSlotsCmd() *cobra.Command {
	var userID string
	c := &cobra.Command{
		Use:   "slots",
		Short: "Print the current catalogue with occupancy for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			alloc, closeDB, err := openAllocator(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			statuses, err := alloc.ListAvailableSlots(ctx, userID)
			if err != nil {
				return err
			}
			for _, st := range statuses {
				fmt.Fprintf(os.Stdout, "%-22s %s %s-%s  %2d/%d bookable=%t\n",
					st.Slot.Product, st.Slot.Date, st.Slot.Start, st.Slot.End,
					st.Occupancy, booking.SlotCapacity, st.Bookable)
			}
			return nil
		},
	}
	c.Flags().StringVar(&userID, "user-id", "", "profile id (uuid)")
	_ = c.MarkFlagRequired("user-id")
	return c
}

func newBookingCreateCmd() *cobra.Command {
	var (
		userID  string
		product string
		date    string
		start   string
	)

	c := &cobra.Command{
		Use:   "create",
		Short: "Book a demo session for an attendee",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			alloc, closeDB, err := openAllocator(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}

			b, err := alloc.Submit(ctx, userID, catalog.Key{Product: product, Date: date, Start: start})
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "booked id=%s %s %s %s-%s\n",
				b.ID, b.ProductName, b.SessionDate, b.StartTime, b.EndTime)
			return nil
		},
	}

	c.Flags().StringVar(&userID, "user-id", "", "profile id (uuid)")
	c.Flags().StringVar(&product, "product", "", "product name")
	c.Flags().StringVar(&date, "date", "", "session date YYYY-MM-DD")
	c.Flags().StringVar(&start, "start", "", "start time HH:MM")
	_ = c.MarkFlagRequired("user-id")
	_ = c.MarkFlagRequired("product")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("start")
	return c
}

func newBookingListCmd() *cobra.Command {
	var userID string
	c := &cobra.Command{
		Use:   "list",
		Short: "List an attendee's bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			alloc, closeDB, err := openAllocator(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			bs, err := alloc.Gateway.BookingsByUser(ctx, userID)
			if err != nil {
				return err
			}
			for _, b := range bs {
				fmt.Fprintf(os.Stdout, "id=%s product=%q date=%s start=%s created=%s\n",
					b.ID, b.ProductName, b.SessionDate, b.StartTime, b.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	c.Flags().StringVar(&userID, "user-id", "", "profile id (uuid)")
	_ = c.MarkFlagRequired("user-id")
	return c
}
