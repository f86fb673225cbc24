package audio

import "math"

// vuWindowFraction is the integration window for VU metering, expressed
// as a fraction of one second: one 25th of a second per the spec.
const vuWindowFraction = 25

// silentDB is reported when a VU window contained no samples (N=0), far
// enough below any real signal level to read clearly as "nothing here"
// on a meter.
const silentDB = -999.0

// vuMeter integrates squared sample magnitude over fixed-size windows and
// reports the result in dB. A disabled meter skips the integration work
// entirely and keeps reporting the last level it computed.
type vuMeter struct {
	rate     int
	window   int // samples per integration window, derived from rate
	sumSq    float64
	n        int
	lastDB   float64
	disabled bool
}

func newVUMeter(rate int) *vuMeter {
	m := &vuMeter{rate: rate, lastDB: silentDB}
	m.setRate(rate)
	return m
}

func (m *vuMeter) setRate(rate int) {
	m.rate = rate
	m.window = rate / vuWindowFraction
	if m.window <= 0 {
		m.window = 1
	}
}

// SetDisabled freezes VU output: while disabled, Feed is a no-op and DB
// keeps returning the last computed value (or silentDB if none yet).
func (m *vuMeter) SetDisabled(v bool) { m.disabled = v }

// Feed accumulates one sample into the current integration window,
// flushing and resetting it once window samples have been seen.
func (m *vuMeter) Feed(sample int16) {
	if m.disabled {
		return
	}
	x := float64(sample)
	m.sumSq += x * x
	m.n++
	if m.n >= m.window {
		m.flush()
	}
}

func (m *vuMeter) flush() {
	m.lastDB = dbFromSumSq(m.sumSq, m.n)
	m.sumSq = 0
	m.n = 0
}

// DB returns the most recently completed window's level in dB.
func (m *vuMeter) DB() float64 {
	return m.lastDB
}

// dbFromSumSq computes 10/ln(10) * (ln(sumSq) - ln(n)), the mean-square
// level in dB, clamped to silentDB when there is nothing to measure.
func dbFromSumSq(sumSq float64, n int) float64 {
	if n == 0 || sumSq <= 0 {
		return silentDB
	}
	const scale = 10 / math.Ln10
	return scale * (math.Log(sumSq) - math.Log(float64(n)))
}
