package audio

import "testing"

func TestVoiceRingPushPop(t *testing.T) {
	r := newVoiceRing(4)
	r.push(1.5)
	r.push(2.5)

	v, underrun := r.pop()
	if underrun || v != 1.5 {
		t.Errorf("pop() = %v, %v, want 1.5, false", v, underrun)
	}
	v, underrun = r.pop()
	if underrun || v != 2.5 {
		t.Errorf("pop() = %v, %v, want 2.5, false", v, underrun)
	}
}

func TestVoiceRingUnderrunReplaysLastSample(t *testing.T) {
	r := newVoiceRing(4)
	r.push(3.0)
	r.pop()

	v, underrun := r.pop()
	if !underrun {
		t.Error("expected underrun with nothing queued")
	}
	if v != 3.0 {
		t.Errorf("underrun replay = %v, want last sample 3.0", v)
	}
}

func TestVoiceRingUnderrunBeforeAnySampleIsZero(t *testing.T) {
	r := newVoiceRing(4)
	v, underrun := r.pop()
	if !underrun || v != 0 {
		t.Errorf("pop() on empty fresh ring = %v, %v, want 0, true", v, underrun)
	}
}

func TestVoiceRingFullDropsPush(t *testing.T) {
	r := newVoiceRing(2)
	if !r.push(1) {
		t.Fatal("first push into empty ring should succeed")
	}
	if !r.push(2) {
		t.Fatal("second push into ring of size 2 should succeed")
	}
	if r.push(3) {
		t.Error("push into full ring should report false")
	}
}

func TestVoiceRingAvailable(t *testing.T) {
	r := newVoiceRing(8)
	r.push(1)
	r.push(2)
	r.push(3)
	if got := r.available(); got != 3 {
		t.Errorf("available() = %d, want 3", got)
	}
	r.pop()
	if got := r.available(); got != 2 {
		t.Errorf("available() after one pop = %d, want 2", got)
	}
}
