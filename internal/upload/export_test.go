package upload

import "time"

// SetClockForTest replaces the freshness clock of o
func SetClockForTest(o *Orchestrator, now func() time.Time) {
	o.now = now
}
