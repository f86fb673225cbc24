package controller

import "testing"

func gamepadSet(t *testing.T) *PortTypeSet {
	t.Helper()
	set, err := Make([]PortType{NewGamepad()})
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	return set
}

func TestMakeIsCanonical(t *testing.T) {
	gp := NewGamepad()
	s1, err := Make([]PortType{gp})
	if err != nil {
		t.Fatal(err)
	}
	s2, err := Make([]PortType{gp})
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Fatalf("Make should intern identical type sequences to the same object")
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	set := gamepadSet(t)
	f := NewFrame(set)
	f.Axis3(0, 0, 0, 1) // A
	f.Axis3(0, 0, 3, 1) // Start
	f.SetSync(true)

	buf := f.Serialize(nil)

	g := NewFrame(set)
	g.Deserialize(buf)

	for i := 0; i < set.Indices(); i++ {
		if f.Axis2Read(i) != g.Axis2Read(i) {
			t.Fatalf("control %d: %d != %d after round trip", i, f.Axis2Read(i), g.Axis2Read(i))
		}
	}
}

// S1: record-to-replay round trip byte format.
func TestS1SerializedBytes(t *testing.T) {
	set := gamepadSet(t)

	mk := func(a, start bool) string {
		f := NewFrame(set)
		f.SetSync(true)
		if a {
			f.Axis3(0, 0, 0, 1)
		}
		if start {
			f.Axis3(0, 0, 3, 1)
		}
		return string(f.Serialize(nil))
	}

	cases := []struct {
		a, start bool
		want     string
	}{
		{true, false, "|A.......\x00"},
		{true, true, "|A..S....\x00"},
		{false, false, "|........\x00"},
	}
	for _, c := range cases {
		got := mk(c.a, c.start)
		if got != c.want {
			t.Errorf("got %q want %q", got, c.want)
		}
	}
}

func TestSyncDoesNotAliasButtons(t *testing.T) {
	set := gamepadSet(t)
	f := NewFrame(set)
	f.SetSync(true)
	for i := 0; i < set.Indices(); i++ {
		if f.Axis2Read(i) != 0 {
			t.Fatalf("control %d read nonzero with only sync set", i)
		}
	}
}

func TestFrameVectorWalkSyncAndCounts(t *testing.T) {
	set := gamepadSet(t)
	v := NewFrameVector(set)

	push := func(sync bool) {
		f := v.BlankFrame(sync)
		v.Append(&f)
	}
	push(true)  // 0
	push(false) // 1
	push(false) // 2
	push(true)  // 3
	push(true)  // 4

	if got := v.WalkSync(0); got != 3 {
		t.Errorf("WalkSync(0) = %d, want 3", got)
	}
	if got := v.SubframeCount(0); got != 3 {
		t.Errorf("SubframeCount(0) = %d, want 3", got)
	}
	if got := v.WalkSync(3); got != 4 {
		t.Errorf("WalkSync(3) = %d, want 4", got)
	}
	if got := v.WalkSync(4); got != 5 {
		t.Errorf("WalkSync(4) = %d, want 5", got)
	}
	if got := v.WalkSync(5); got != 5 {
		t.Errorf("WalkSync(5) at size should return size, got %d", got)
	}
	if got := v.CountFrames(); got != 3 {
		t.Errorf("CountFrames() = %d, want 3", got)
	}

	// Invariant 2: sum of subframe_count over sync indices == size.
	sum := 0
	for i := 0; i < v.Size(); i++ {
		if v.At(i).Sync() {
			sum += v.SubframeCount(i)
		}
	}
	if sum != v.Size() {
		t.Errorf("sum of subframe counts = %d, want %d", sum, v.Size())
	}
}

func TestFrameVectorResizeRoundTrip(t *testing.T) {
	set := gamepadSet(t)
	v := NewFrameVector(set)
	v.Resize(300) // fits in one page: frame size 2 gives 32750 frames per page
	if v.Size() != 300 {
		t.Fatalf("Size() = %d, want 300", v.Size())
	}
	for i := 0; i < 300; i++ {
		if v.At(i).Sync() {
			t.Fatalf("extended frame %d should be blank (unsynced)", i)
		}
	}
	v.Resize(10)
	if v.Size() != 10 {
		t.Fatalf("Size() after shrink = %d, want 10", v.Size())
	}
}

func TestPollcounterVector(t *testing.T) {
	set := gamepadSet(t)
	pc := NewPollcounterVector(set.Indices())
	if pc.HasPolled() {
		t.Fatal("fresh vector should not have polled")
	}
	old := pc.IncrementPolls(0)
	if old != 0 {
		t.Fatalf("first increment should return 0, got %d", old)
	}
	if pc.GetPolls(0) != 1 {
		t.Fatalf("GetPolls(0) = %d, want 1", pc.GetPolls(0))
	}
	if !pc.HasPolled() {
		t.Fatal("expected HasPolled true after increment")
	}
	if pc.MaxPolls() != 1 {
		t.Fatalf("MaxPolls() = %d, want 1", pc.MaxPolls())
	}
	pc.SetAllDRDY()
	if !pc.GetDRDY(0) {
		t.Fatal("expected DRDY set")
	}
	pc.ClearDRDY(0)
	if pc.GetDRDY(0) {
		t.Fatal("expected DRDY cleared")
	}

	counters, fp := pc.SaveState()
	pc2 := NewPollcounterVector(set.Indices())
	if err := pc2.LoadState(counters, fp); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if pc2.GetPolls(0) != 1 {
		t.Fatalf("restored GetPolls(0) = %d, want 1", pc2.GetPolls(0))
	}

	if err := pc2.LoadState(counters[1:], fp); err == nil {
		t.Fatal("expected ErrWrongCounterCount on length mismatch")
	}
}
