package frame

import "time"

// epochToTime interprets an int64 as UTC unix-epoch seconds, backing the
// dt.* expression namespace.
func epochToTime(epochSeconds int64) time.Time {
	return time.Unix(epochSeconds, 0).UTC()
}
