// Package controller implements the port-type-set and controller-frame
// model: a typed, byte-packed layout of one subframe of input across all
// controller ports that a running emulator core polls.
package controller

import "errors"

// ControlType classifies one button or axis exposed by a port type.
type ControlType int

const (
	TypeNull   ControlType = iota // placeholder; Make still gives it a flat index like any other control
	TypeButton                    // digital, pressed/released
	TypeAxis                      // absolute analog axis
	TypeRAxis                     // relative analog axis (e.g. mouse delta)
	TypeTAxis                     // throttle axis, unpaired with a button
)

// Control describes one button or axis of a controller.
type Control struct {
	Type    ControlType
	Symbol  byte   // single-character serialization symbol
	Name    string // display name
	RMin    int16  // legal range lower bound
	RMax    int16  // legal range upper bound
	Centers bool   // true if the axis's rest position is the midpoint
}

// MAXIMUM_CONTROLLER_FRAME_SIZE bounds the inline storage a ControllerFrame
// carries when it owns its bytes.
const MAXIMUM_CONTROLLER_FRAME_SIZE = 128

var (
	ErrIllegalTypes         = errors.New("controller: illegal port type for slot")
	ErrBadPortIndex         = errors.New("controller: port index out of range")
	ErrBadLogicalController = errors.New("controller: logical controller id out of range")
	ErrBadLegacyPCID        = errors.New("controller: legacy physical controller id out of range")
	ErrTypeMismatch         = errors.New("controller: operation across mismatched port type sets")
)

// DeserializeSpecialBlank is returned by PortType.Deserialize when the port
// has zero storage: the caller must not consume a field separator for it.
const DeserializeSpecialBlank = 0xFFFFFFFF

// PortType is the capability set a concrete input device (gamepad, mouse,
// a console's built-in keypad, ...) must implement. Dispatch is uniform:
// the port type set never knows what kind of device it is multiplexing.
type PortType interface {
	// Name identifies the port type for serialization and display.
	Name() string
	// StorageSize is the number of bytes this port occupies in a subframe.
	StorageSize() int
	// Controllers returns the controller descriptors hosted by this port
	// (e.g. a port type with two gamepad slots returns two descriptors).
	Controllers() []ControllerDesc
	// Legal reports whether this type may occupy port index idx. Most
	// types are legal anywhere; console-fixed ports (e.g. "system keys")
	// are only legal at index 0.
	Legal(idx int) bool

	Write(buf []byte, controller, control int, value int16)
	Read(buf []byte, controller, control int) int16

	// Serialize appends this port's textual form to buf and returns it.
	Serialize(buf []byte, dst []byte) []byte
	// Deserialize parses this port's textual form from the head of buf,
	// writing decoded values into dst, and returns the number of bytes
	// consumed from buf, or DeserializeSpecialBlank.
	Deserialize(buf []byte, dst []byte) (consumed int)
	// Display renders dst as a short human-readable string (HUD use).
	Display(dst []byte) string
}

// ControllerDesc lists the buttons/axes exposed by one controller slot of
// a port type.
type ControllerDesc struct {
	Controls []Control
}
