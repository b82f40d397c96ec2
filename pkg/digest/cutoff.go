package digest

import "time"

// digestZone is the fixed timezone for cutoff computation. Lookback windows
// are aligned to full-day boundaries in UTC+8, so all runs started within
// the same UTC+8 calendar day share one cutoff.
var digestZone = time.FixedZone("UTC+8", 8*60*60)

// Cutoff returns the instant before which items are discarded: midnight
// UTC+8 of the current day, minus lookbackDays.
func Cutoff(now time.Time, lookbackDays int) time.Time {
	local := now.In(digestZone)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, digestZone)
	return midnight.AddDate(0, 0, -lookbackDays)
}
