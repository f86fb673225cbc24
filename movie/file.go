package movie

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/user-none/retrocore/controller"
)

// movieFileMagic tags a serialized movie file payload (§6.2): rerecord
// count string, project id string, and the controller frame vector.
var movieFileMagic = [4]byte{'R', 'C', 'M', 'V'}

// WriteFile serializes m's external payload — rerecords, project id, and
// every frame of its input vector — to w.
func WriteFile(w io.Writer, m *Movie) error {
	if _, err := w.Write(movieFileMagic[:]); err != nil {
		return err
	}
	if err := writeString(w, m.rerecords); err != nil {
		return err
	}
	if err := writeString(w, m.projectID); err != nil {
		return err
	}

	n := m.vector.CountFrames()
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(n))
	if _, err := w.Write(countBuf[:]); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		f := m.vector.At(i)
		buf := f.Serialize(nil)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile reconstructs a Movie from a stream written by WriteFile,
// interpreting every frame against types — the caller establishes the
// port layout, since it is not itself part of the movie payload.
func ReadFile(r io.Reader, types *controller.PortTypeSet) (*Movie, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("movie: reading magic: %w", err)
	}
	if magic != movieFileMagic {
		return nil, fmt.Errorf("movie: bad magic %q", magic[:])
	}

	rerecords, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("movie: reading rerecords: %w", err)
	}
	projectID, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("movie: reading project id: %w", err)
	}

	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, fmt.Errorf("movie: reading frame count: %w", err)
	}
	n := int(binary.BigEndian.Uint32(countBuf[:]))

	vector := controller.NewFrameVector(types)
	frameSize := frameByteSize(types)
	buf := make([]byte, frameSize)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("movie: reading frame %d: %w", i, err)
		}
		f := controller.NewFrame(types)
		f.Deserialize(buf)
		vector.Append(&f)
	}

	m := New(types)
	if err := m.Load(rerecords, projectID, vector); err != nil {
		return nil, err
	}
	return m, nil
}

// frameByteSize derives the serialized length of one ControllerFrame for
// types by serializing a blank frame once.
func frameByteSize(types *controller.PortTypeSet) int {
	f := controller.NewFrame(types)
	return len(f.Serialize(nil))
}

func writeString(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
