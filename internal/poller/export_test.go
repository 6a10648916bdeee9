package poller

import "time"

// SetTickerForTest makes every polling cycle read ticks from ticks. started is
// incremented each time a cycle creates its ticker.
func SetTickerForTest(p *Poller, ticks chan time.Time, started *int) {
	p.ticker = func(time.Duration) (<-chan time.Time, func()) {
		if started != nil {
			*started++
		}
		return ticks, func() {}
	}
}
