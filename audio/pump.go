package audio

import (
	"sync"
	"time"
)

// dummyPumpInterval is the cadence at which the dummy pump drains the
// music ring when no real audio driver is bound; it doubles as the
// worst-case shutdown latency.
const dummyPumpInterval = 10 * time.Millisecond

// dummyPumpSamples is how many sample frames the pump asks get_mixed for
// on each tick: 10ms worth at the mixer's last known play rate, or a
// 48kHz default before any rate has ever been set.
func (m *Mixer) dummyPumpSamples() int {
	rate := m.playRate
	if rate == 0 {
		rate = 48000
	}
	return rate / 100
}

// DummyPump runs a background loop that calls GetMixed and PutVoice at
// ~100 Hz so the music and record rings keep draining while no audio
// driver is bound. It returns a stop function that signals shutdown and
// blocks until the loop has exited, matching the join-on-teardown
// requirement for this background worker.
func (m *Mixer) DummyPump() (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(dummyPumpInterval)
		defer ticker.Stop()
		scratch := make([]int16, 0, 4096)

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !m.dummyPlay && !m.dummyRec {
					continue
				}
				n := m.dummyPumpSamples()
				if m.dummyPlay {
					if cap(scratch) < n {
						scratch = make([]int16, n)
					}
					scratch = scratch[:n]
					m.GetMixed(scratch, n, false)
					m.GetMusic(n)
				}
				if m.dummyRec {
					m.PutVoice(nil, n)
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}
