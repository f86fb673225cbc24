package movie

import (
	"bytes"
	"testing"
)

func TestWriteFileReadFileRoundTrip(t *testing.T) {
	set := newSet(t)
	m := New(set)
	m.ReadOnlyMode(false)

	const aIdx = 0
	for i := 0; i < 3; i++ {
		m.CurrentControls().Axis2(aIdx, boolTo16(i%2 == 0))
		m.NextFrame()
	}
	m.rerecords = "7"
	m.projectID = "proj-123"

	var buf bytes.Buffer
	if err := WriteFile(&buf, m); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(&buf, set)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.rerecords != "7" {
		t.Errorf("rerecords = %q, want %q", got.rerecords, "7")
	}
	if got.projectID != "proj-123" {
		t.Errorf("projectID = %q, want %q", got.projectID, "proj-123")
	}
	if got.vector.CountFrames() != m.vector.CountFrames() {
		t.Fatalf("CountFrames() = %d, want %d", got.vector.CountFrames(), m.vector.CountFrames())
	}
	for i := 0; i < m.vector.CountFrames(); i++ {
		want := m.vector.At(i).Serialize(nil)
		gotBytes := got.vector.At(i).Serialize(nil)
		if !bytes.Equal(want, gotBytes) {
			t.Errorf("frame %d mismatch: got %v, want %v", i, gotBytes, want)
		}
	}
}

func TestReadFileRejectsBadMagic(t *testing.T) {
	set := newSet(t)
	_, err := ReadFile(bytes.NewReader([]byte("not a movie file at all")), set)
	if err == nil {
		t.Fatal("expected an error for a bad magic")
	}
}
