package news

import "time"

// CST is the fixed UTC+8 civil calendar the source site publishes in.
// All human-facing timestamps use this zone regardless of where the
// service runs.
var CST = time.FixedZone("UTC+8", 8*60*60)

// TimeLayout is the human-facing timestamp layout used in records and
// on the front page.
const TimeLayout = "2006-01-02 15:04"

// FormatTime renders t as YYYY-MM-DD HH:MM in Beijing time.
func FormatTime(t time.Time) string {
	return t.In(CST).Format(TimeLayout)
}
