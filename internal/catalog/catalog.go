package catalog

import "time"

// Products demoed at the event stand. Order is the display order.
var Products = []string{
	"Threat Intelligence",
	"XDR Expert",
	"SIEM",
	"Technology Alliance",
}

// Window is a demo time window in kiosk-local time, HH:MM.
type Window struct {
	Start string
	End   string
}

// Four half-hour windows per day. The 13:00-15:00 gap is the lunch break
// and must stay free of sessions.
var Windows = []Window{
	{Start: "11:00", End: "11:30"},
	{Start: "12:00", End: "12:30"},
	{Start: "15:00", End: "15:30"},
	{Start: "16:00", End: "16:30"},
}

const dateFormat = "2006-01-02"

// Key identifies a slot: one product, one day, one start time.
type Key struct {
	Product string
	Date    string // YYYY-MM-DD
	Start   string // HH:MM
}

type Slot struct {
	Product string
	Date    string
	Start   string
	End     string
}

func (s Slot) Key() Key {
	return Key{Product: s.Product, Date: s.Date, Start: s.Start}
}

// Generate returns the full bookable catalogue for the two-day window
// anchored at now: products x {today, tomorrow} x windows. Nothing is
// persisted; the window rolls forward as the wall-clock date advances.
func Generate(now time.Time) []Slot {
	dates := []string{
		now.Format(dateFormat),
		now.AddDate(0, 0, 1).Format(dateFormat),
	}

	slots := make([]Slot, 0, len(dates)*len(Products)*len(Windows))
	for _, d := range dates {
		for _, p := range Products {
			for _, w := range Windows {
				slots = append(slots, Slot{
					Product: p,
					Date:    d,
					Start:   w.Start,
					End:     w.End,
				})
			}
		}
	}
	return slots
}

// Contains reports whether key names a slot in the catalogue anchored at now.
func Contains(now time.Time, key Key) bool {
	_, ok := Find(now, key)
	return ok
}

// Find returns the catalogue slot for key, if the current window has one.
func Find(now time.Time, key Key) (Slot, bool) {
	for _, s := range Generate(now) {
		if s.Key() == key {
			return s, true
		}
	}
	return Slot{}, false
}
