package transform

import "time"

// serialRunner executes steps strictly one at a time with a fixed gap between
// consecutive steps. The gap is a throttle against the upstream service's rate
// limits, so it applies only between real calls, never before the first.
type serialRunner struct {
	pace  time.Duration
	sleep func(time.Duration)
}

func newSerialRunner(pace time.Duration) *serialRunner {
	return &serialRunner{pace: pace, sleep: time.Sleep}
}

func (r *serialRunner) run(indices []int, step func(i int)) {
	for n, i := range indices {
		if n > 0 && r.pace > 0 {
			r.sleep(r.pace)
		}
		step(i)
	}
}
