package models

import "time"

// Holiday is a named holiday date with a window of influence extending its
// effect to neighboring days. LowerWindow is non-positive (days before),
// UpperWindow non-negative (days after); both default to zero.
type Holiday struct {
	Date        time.Time `json:"date"`
	Name        string    `json:"name"`
	LowerWindow int       `json:"lower_window"`
	UpperWindow int       `json:"upper_window"`
}

// Covers reports whether d falls within the holiday's window of influence.
func (h Holiday) Covers(d time.Time) bool {
	days := int(d.Sub(h.Date).Hours() / 24)
	return days >= h.LowerWindow && days <= h.UpperWindow
}
