package booking

// MaxBookingsPerUser caps the total demos a single attendee may book
// across the whole event.
const MaxBookingsPerUser = 3

// CanBookProduct is false iff the attendee already holds a booking for the
// product, regardless of day or time. One demo per product per attendee.
func CanBookProduct(existing []Booking, product string) bool {
	for _, b := range existing {
		if b.ProductName == product {
			return false
		}
	}
	return true
}

func TotalBookings(existing []Booking) int {
	return len(existing)
}

// HasCapacityForMore is true while the attendee is under the global cap.
func HasCapacityForMore(existing []Booking) bool {
	return TotalBookings(existing) < MaxBookingsPerUser
}
