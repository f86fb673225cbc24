// Package movie implements the movie state machine: it translates an
// emulator core's polling sequence into appended subframes in record mode,
// and into deterministic replays in playback mode, with safe read-only ↔
// read-write transitions mid-run (§4.4).
package movie

import (
	"errors"

	"github.com/user-none/retrocore/controller"
)

var (
	ErrBadFirstFrame    = errors.New("movie: loaded vector's first frame is not sync")
	ErrIncompatibleSave = errors.New("movie: savestate incompatible with current movie")
)

// PollFlagHandler lets the embedded core mark a frame as non-lag: some
// cores signal "I consumed input this frame" through a side channel
// instead of (or in addition to) actually polling a control.
type PollFlagHandler interface {
	// PFlag reports and clears the core's "this frame was not lag" flag.
	PFlag() bool
}

// Movie is the record/replay state machine described in §4.4. All of its
// methods are intended to run on the single emulation thread; none of them
// take a lock (§5).
type Movie struct {
	vector *controller.FrameVector

	currentFrame             int // 1-based; 0 means "before start"
	currentFrameFirstSubFrame int
	lagFrames                int
	readonly                 bool
	projectID                string
	rerecords                string
	seqno                    uint64

	polls           *controller.PollcounterVector
	currentControls controller.ControllerFrame

	pflag PollFlagHandler

	cachedFrame    int
	cachedSubframe int
}

// New creates a Movie in read-only mode over an empty vector using the
// given type set: equivalent to loading a blank project.
func New(types *controller.PortTypeSet) *Movie {
	v := controller.NewFrameVector(types)
	m := &Movie{
		vector:          v,
		readonly:        true,
		polls:           controller.NewPollcounterVector(types.Indices()),
		currentControls: controller.NewFrame(types),
	}
	return m
}

// SetPollFlagHandler installs the pluggable lag-flag collaborator.
func (m *Movie) SetPollFlagHandler(h PollFlagHandler) { m.pflag = h }

func (m *Movie) Seqno() uint64       { return m.seqno }
func (m *Movie) CurrentFrame() int   { return m.currentFrame }
func (m *Movie) LagFrames() int      { return m.lagFrames }
func (m *Movie) ReadOnly() bool      { return m.readonly }
func (m *Movie) ProjectID() string   { return m.projectID }
func (m *Movie) Rerecords() string   { return m.rerecords }
func (m *Movie) Vector() *controller.FrameVector { return m.vector }
func (m *Movie) Pollcounters() *controller.PollcounterVector { return m.polls }

// CurrentControls returns the pending record-mode frame so a UI/editor can
// set up the next frame's input before NextFrame() commits it.
func (m *Movie) CurrentControls() *controller.ControllerFrame { return &m.currentControls }

func (m *Movie) invalidateCache() { m.cachedFrame, m.cachedSubframe = -1, -1 }

// NextInput implements the core poll callback: get_input(port, controller,
// index) -> value. idx here is the control's index within the controller;
// the flat control index is derived from it via PortTypeSet.TripleToIndex.
func (m *Movie) NextInput(port, ctrl, idx int) int16 {
	flat := int(m.vector.Types().TripleToIndex(port, ctrl, idx))
	m.polls.ClearDRDY(flat)

	if m.readonly {
		return m.nextInputRO(port, ctrl, idx, flat)
	}
	return m.nextInputRW(port, ctrl, idx, flat)
}

func (m *Movie) nextInputRO(port, ctrl, idx, flat int) int16 {
	if m.currentFrameFirstSubFrame >= m.vector.Size() || m.currentFrame == 0 {
		m.polls.IncrementPolls(flat)
		return 0
	}
	changes := m.vector.SubframeCount(m.currentFrameFirstSubFrame)
	polls := int(m.polls.GetPolls(flat))
	at := polls
	if at > changes-1 {
		at = changes - 1
	}
	if at < 0 {
		at = 0
	}
	f := m.vector.At(m.currentFrameFirstSubFrame + at)
	val := f.Axis3Read(port, ctrl, idx)
	m.polls.IncrementPolls(flat)
	return val
}

func (m *Movie) nextInputRW(port, ctrl, idx, flat int) int16 {
	if m.currentFrame == 0 {
		return 0
	}
	if m.currentFrameFirstSubFrame >= m.vector.Size() {
		f := m.currentControls.Copy(true)
		m.vector.Append(&f)
		m.polls.IncrementPolls(flat)
		return f.Axis3Read(port, ctrl, idx)
	}

	newValue := m.currentControls.Axis3Read(port, ctrl, idx)
	polls := int(m.polls.GetPolls(flat))
	first := m.currentFrameFirstSubFrame

	if first+polls < m.vector.Size() {
		last := m.vector.Size() - 1
		for j := first + polls; j <= last; j++ {
			fr := m.vector.At(j)
			fr.Axis3(port, ctrl, idx, newValue)
		}
	} else {
		lastFrame := m.vector.At(m.vector.Size() - 1)
		if newValue != lastFrame.Axis3Read(port, ctrl, idx) {
			for first+polls >= m.vector.Size() {
				cp := lastFrame.Copy(false)
				m.vector.Append(&cp)
				lastFrame = m.vector.At(m.vector.Size() - 1)
			}
			target := m.vector.At(first + polls)
			target.Axis3(port, ctrl, idx, newValue)
		}
	}
	m.polls.IncrementPolls(flat)
	return newValue
}

// NextFrame advances to the next emulated frame: lag detection, commit of
// any pending record-mode frame, pollcounter reset, and first-subframe
// bookkeeping (§4.4).
func (m *Movie) NextFrame() {
	if m.currentFrame > 0 {
		pflag := m.polls.HasPolled()
		if m.pflag != nil {
			pflag = m.pflag.PFlag()
		}
		if !pflag {
			m.lagFrames++
		}
	}

	if m.currentFrame > 0 && !m.polls.HasPolled() {
		if !m.readonly {
			f := m.currentControls.Copy(true)
			m.vector.Append(&f)
		}
	}

	m.polls.Clear()

	if m.currentFrame == 0 {
		m.currentFrameFirstSubFrame = 0
	} else {
		m.currentFrameFirstSubFrame += m.vector.SubframeCount(m.currentFrameFirstSubFrame)
	}
	m.currentFrame++
	m.invalidateCache()
}

// ReadOnlyMode transitions between playback (true) and record (false)
// modes. Entering record mode from the tail of the vector extends it with
// blanks, truncates any "future" subframes the replay hadn't consumed, and
// propagates the last-seen value of every control across the remainder of
// the current frame so the transition is seamless mid-frame (§4.4).
func (m *Movie) ReadOnlyMode(readonly bool) {
	wasRO := m.readonly
	m.readonly = readonly
	if !wasRO || readonly {
		return // only the true->false transition needs work
	}

	if m.currentFrame == 0 {
		m.vector.Resize(0)
		return
	}

	if m.currentFrameFirstSubFrame >= m.vector.Size() {
		for m.vector.CountFrames() < m.currentFrame {
			f := m.vector.BlankFrame(true)
			m.vector.Append(&f)
		}
		m.currentFrameFirstSubFrame = m.vector.Size() - 1
	}

	maxReadable := m.currentFrameFirstSubFrame + int(m.polls.MaxPolls())
	nextFrameStart := m.vector.WalkSync(m.currentFrameFirstSubFrame)
	cutoff := maxReadable
	if nextFrameStart < cutoff {
		cutoff = nextFrameStart
	}
	m.vector.Resize(cutoff)
	nextFrameStart = m.vector.WalkSync(m.currentFrameFirstSubFrame)

	// The spec's loop skips flat index 0 because classic implementations
	// alias it to the frame's sync bit. This implementation keeps sync as
	// a pure frame-level bit outside the control-index space (see
	// controller.StandardPad), so every flat index here is a real control
	// and all of them participate in sticky-value propagation.
	indices := m.vector.Types().Indices()
	for i := 0; i < indices; i++ {
		polls := int(m.polls.GetPolls(i))
		if polls < 1 {
			polls = 1
		}
		srcIdx := m.currentFrameFirstSubFrame + polls - 1
		if srcIdx < 0 || srcIdx >= m.vector.Size() {
			continue
		}
		srcVal := m.vector.At(srcIdx).Axis2Read(i)
		for j := m.currentFrameFirstSubFrame + polls; j < nextFrameStart && j < m.vector.Size(); j++ {
			fr := m.vector.At(j)
			fr.Axis2(i, srcVal)
		}
	}
	m.invalidateCache()
}

// Load replaces the playing vector, switching to read-only mode with reset
// counters and position. The new vector's first frame must be sync if it
// is non-empty.
func (m *Movie) Load(rerecords, projectID string, vector *controller.FrameVector) error {
	if vector.Size() > 0 && !vector.At(0).Sync() {
		return ErrBadFirstFrame
	}
	m.vector = vector
	m.rerecords = rerecords
	m.projectID = projectID
	m.seqno++
	m.readonly = true
	m.polls = controller.NewPollcounterVector(vector.Types().Indices())
	m.currentFrame = 0
	m.currentFrameFirstSubFrame = 0
	m.lagFrames = 0
	m.currentControls = controller.NewFrame(vector.Types())
	m.invalidateCache()
	return nil
}

// SavedState is the serializable subset of movie position emitted by
// SaveState and consumed by RestoreState/FastLoad.
type SavedState struct {
	ProjectID  string
	Frame      int
	Lag        int
	Counters   []uint32
	FramePFlag bool
	ReadOnly   bool
}

// SaveState emits the current position for a savestate.
func (m *Movie) SaveState() SavedState {
	counters, fp := m.polls.SaveState()
	return SavedState{
		ProjectID:  m.projectID,
		Frame:      m.currentFrame,
		Lag:        m.lagFrames,
		Counters:   counters,
		FramePFlag: fp,
		ReadOnly:   m.readonly,
	}
}

// compatibleUpTo reports whether other is "compatible up to frame F" with
// m.vector: identical type sets, identical bytes strictly before frame F's
// first subframe, and (for frame F itself) agreement on the first
// pollcount[i] subframes per control, per §4.2.
func compatibleUpTo(a, b *controller.FrameVector, counters []uint32, frameNo int) bool {
	if a.Types() != b.Types() {
		return false
	}
	// Locate first subframe of frameNo in both (1-based frame numbering).
	firstA, firstB := 0, 0
	synced := 0
	for i := 0; i < a.Size() && synced < frameNo-1; i++ {
		if a.At(i).Sync() {
			synced++
			if synced == frameNo-1 {
				firstA = i + a.SubframeCount(i)
			}
		}
	}
	synced = 0
	for i := 0; i < b.Size() && synced < frameNo-1; i++ {
		if b.At(i).Sync() {
			synced++
			if synced == frameNo-1 {
				firstB = i + b.SubframeCount(i)
			}
		}
	}
	if frameNo <= 1 {
		firstA, firstB = 0, 0
	}

	// All prior frames must agree byte-for-byte.
	for i := 0; i < firstA && i < firstB; i++ {
		if !framesEqual(a.At(i), b.At(i)) {
			return false
		}
	}
	if firstA != firstB {
		return false
	}

	for i, pc := range counters {
		cnt := int(pc &^ (1 << 31))
		for j := 0; j < cnt; j++ {
			ai, bi := firstA+j, firstB+j
			if ai >= a.Size() || bi >= b.Size() {
				break
			}
			af := a.At(ai)
			bf := b.At(bi)
			if af.Axis2Read(i) != bf.Axis2Read(i) {
				return false
			}
		}
	}
	return true
}

func framesEqual(a, b controller.ControllerFrame) bool {
	n := a.Types().Indices()
	for i := 0; i < n; i++ {
		if a.Axis2Read(i) != b.Axis2Read(i) {
			return false
		}
	}
	return a.Sync() == b.Sync()
}

// RestoreState validates compatibility against oldVector (if non-nil) up
// through the saved frame, recomputes first-subframe from scratch, and
// reinstates the saved position.
func (m *Movie) RestoreState(s SavedState, oldVector *controller.FrameVector, oldProjectID string) error {
	if oldVector != nil {
		if s.ProjectID != oldProjectID {
			return ErrIncompatibleSave
		}
		if !compatibleUpTo(m.vector, oldVector, s.Counters, s.Frame) {
			return ErrIncompatibleSave
		}
	}
	return m.installState(s)
}

func (m *Movie) installState(s SavedState) error {
	first := 0
	idx := 0
	for f := 1; f < s.Frame; f++ {
		first += m.vector.SubframeCount(idx)
		idx = first
	}
	m.currentFrame = s.Frame
	m.currentFrameFirstSubFrame = first
	m.lagFrames = s.Lag
	if err := m.polls.LoadState(s.Counters, s.FramePFlag); err != nil {
		return err
	}
	m.invalidateCache()
	m.ReadOnlyMode(s.ReadOnly)
	return nil
}

// FastSave is the savestate hot path: identical payload to SaveState.
func (m *Movie) FastSave() SavedState { return m.SaveState() }

// FastLoad skips the compatibility check and trusts the passed position.
func (m *Movie) FastLoad(s SavedState) error {
	return m.installState(s)
}

// ReadSubframeAtIndex lets a UI/editor poke a specific sub-control of the
// current frame while in read-only mode, extending the vector at the tail
// with blank subframes as needed.
func (m *Movie) ReadSubframeAtIndex(sub int, flatIdx int) int16 {
	for sub >= m.vector.Size() {
		f := m.vector.BlankFrame(false)
		m.vector.Append(&f)
	}
	f := m.vector.At(sub)
	return f.Axis2Read(flatIdx)
}

// WriteSubframeAtIndex writes to a specific sub-control of a subframe. A
// write past the current frame (i.e. sub before currentFrameFirstSubFrame)
// is a no-op; writes at or beyond the vector's tail extend it with blanks.
func (m *Movie) WriteSubframeAtIndex(sub int, flatIdx int, value int16) {
	if sub < m.currentFrameFirstSubFrame {
		return
	}
	for sub >= m.vector.Size() {
		f := m.vector.BlankFrame(false)
		m.vector.Append(&f)
	}
	f := m.vector.At(sub)
	f.Axis2(flatIdx, value)
}
