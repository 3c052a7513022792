package booking

import "github.com/example/kiosk-booking/internal/catalog"

// SlotCapacity is the seat count of every session, uniform across the
// catalogue.
const SlotCapacity = 20

// Occupancy returns the committed seat count for a slot. counts must come
// fresh from the gateway; a stale page-load snapshot is only advisory and
// the commit-time re-check in the repo is what actually holds the line.
func Occupancy(counts map[catalog.Key]int, key catalog.Key) int {
	return counts[key]
}

func IsFull(counts map[catalog.Key]int, key catalog.Key) bool {
	return Occupancy(counts, key) >= SlotCapacity
}
