package controller

import (
	"fmt"
	"strconv"
)

// StandardPad is a generic, bit-packed digital+analog controller port type.
// It hosts a fixed number of identical controller slots, each with the same
// button and axis layout. Button bits within a controller slot start at
// local bit 1 of the port's first storage byte: local bit 0 is always left
// unused so that whichever port type a port type set happens to place at
// index 0, the controller frame's sync flag (the global bit 0 of the whole
// subframe, see ControllerFrame.Sync) never aliases a real control.
type StandardPad struct {
	name        string
	controllers int
	buttons     []Control // TYPE_BUTTON entries, in bit order
	axes        []Control // TYPE_AXIS/TYPE_RAXIS/TYPE_TAXIS entries, in byte order
	onlyFirst   bool       // true if this type may only occupy port index 0
}

// NewStandardPad builds a port type with the given per-controller button and
// axis layout, replicated across `controllers` identical slots.
func NewStandardPad(name string, controllers int, buttons, axes []Control) *StandardPad {
	return &StandardPad{name: name, controllers: controllers, buttons: buttons, axes: axes}
}

func (p *StandardPad) Name() string { return p.name }

func (p *StandardPad) bitsPerController() int { return len(p.buttons) }

func (p *StandardPad) buttonBytes() int {
	total := p.controllers*p.bitsPerController() + 1 // +1: reserved sync-safe padding bit
	return (total + 7) / 8
}

func (p *StandardPad) StorageSize() int {
	return p.buttonBytes() + 2*p.controllers*len(p.axes)
}

func (p *StandardPad) Controllers() []ControllerDesc {
	descs := make([]ControllerDesc, p.controllers)
	for i := range descs {
		ctrls := make([]Control, 0, len(p.buttons)+len(p.axes))
		ctrls = append(ctrls, p.axes...)
		ctrls = append(ctrls, p.buttons...)
		descs[i] = ControllerDesc{Controls: ctrls}
	}
	return descs
}

func (p *StandardPad) Legal(idx int) bool {
	if p.onlyFirst {
		return idx == 0
	}
	return true
}

// control indices are axes first (TYPE_AXIS family), then buttons, matching
// Controllers(). This lets axis values be queried at small indices and
// buttons afterward, mirroring the classic lsnes pad layout.
func (p *StandardPad) bitIndex(controller, control int) (byteIdx int, bit uint, isButton bool, axisIdx int) {
	nAxes := len(p.axes)
	if control < nAxes {
		return 0, 0, false, control
	}
	btn := control - nAxes
	absBit := controller*p.bitsPerController() + btn + 1
	return absBit / 8, uint(absBit % 8), true, -1
}

func (p *StandardPad) Write(buf []byte, controller, control int, value int16) {
	if controller < 0 || controller >= p.controllers {
		return
	}
	nAxes := len(p.axes)
	if control < 0 || control >= nAxes+len(p.buttons) {
		return
	}
	byteIdx, bit, isButton, axisIdx := p.bitIndex(controller, control)
	if isButton {
		if value != 0 {
			buf[byteIdx] |= 1 << bit
		} else {
			buf[byteIdx] &^= 1 << bit
		}
		return
	}
	off := p.buttonBytes() + 2*(controller*nAxes+axisIdx)
	buf[off] = byte(uint16(value) >> 8)
	buf[off+1] = byte(uint16(value))
}

func (p *StandardPad) Read(buf []byte, controller, control int) int16 {
	if controller < 0 || controller >= p.controllers {
		return 0
	}
	nAxes := len(p.axes)
	if control < 0 || control >= nAxes+len(p.buttons) {
		return 0
	}
	byteIdx, bit, isButton, axisIdx := p.bitIndex(controller, control)
	if isButton {
		if buf[byteIdx]&(1<<bit) != 0 {
			return 1
		}
		return 0
	}
	off := p.buttonBytes() + 2*(controller*nAxes+axisIdx)
	return int16(uint16(buf[off])<<8 | uint16(buf[off+1]))
}

func (p *StandardPad) Serialize(buf []byte, dst []byte) []byte {
	nAxes := len(p.axes)
	for c := 0; c < p.controllers; c++ {
		dst = append(dst, '|')
		for i := 0; i < nAxes; i++ {
			v := p.Read(buf, c, i)
			dst = append(dst, ' ')
			dst = strconv.AppendInt(dst, int64(v), 10)
		}
		for i := 0; i < len(p.buttons); i++ {
			v := p.Read(buf, c, nAxes+i)
			if v != 0 {
				dst = append(dst, p.buttons[i].Symbol)
			} else {
				dst = append(dst, '.')
			}
		}
	}
	return dst
}

func (p *StandardPad) Deserialize(buf []byte, dst []byte) int {
	if p.controllers == 0 {
		return DeserializeSpecialBlank
	}
	for i := range dst[:p.StorageSize()] {
		dst[i] = 0
	}
	ptr := 0
	for c := 0; c < p.controllers; c++ {
		// Serialize writes a '|' ahead of every controller's fields.
		if ptr < len(buf) && buf[ptr] == '|' {
			ptr++
		}
		for i := 0; i < len(p.axes); i++ {
			v := readAxisValue(buf, &ptr)
			p.Write(dst, c, i, v)
		}
		for i := 0; i < len(p.buttons); i++ {
			pressed := readButtonValue(buf, &ptr)
			p.Write(dst, c, len(p.axes)+i, boolToI16(pressed))
		}
		skipRestOfField(buf, &ptr, c+1 < p.controllers)
	}
	return ptr
}

func (p *StandardPad) Display(dst []byte) string {
	s := ""
	nAxes := len(p.axes)
	for c := 0; c < p.controllers; c++ {
		for i := 0; i < nAxes; i++ {
			s += fmt.Sprintf("%d ", p.Read(dst, c, i))
		}
		for i := 0; i < len(p.buttons); i++ {
			if p.Read(dst, c, nAxes+i) != 0 {
				s += string(p.buttons[i].Symbol)
			} else {
				s += "-"
			}
		}
	}
	return s
}

func boolToI16(b bool) int16 {
	if b {
		return 1
	}
	return 0
}

func isNonTerminator(ch byte) bool {
	return ch != '|' && ch != '\r' && ch != '\n' && ch != 0
}

// readButtonValue reads one button field starting at *ptr within buf,
// advancing *ptr past it. "." " " "\t" (or a terminator) mean released.
func readButtonValue(buf []byte, ptr *int) bool {
	if *ptr >= len(buf) {
		return false
	}
	ch := buf[*ptr]
	if isNonTerminator(ch) {
		*ptr++
	}
	return ch != '|' && ch != '\r' && ch != '\n' && ch != 0 && ch != '.' && ch != ' ' && ch != '\t'
}

func skipFieldWhitespace(buf []byte, ptr *int) {
	for *ptr < len(buf) && (buf[*ptr] == ' ' || buf[*ptr] == '\t') {
		*ptr++
	}
}

// readAxisValue parses optional leading whitespace, an optional sign, then
// decimal digits, truncating the result to 16 bits by cast.
func readAxisValue(buf []byte, ptr *int) int16 {
	skipFieldWhitespace(buf, ptr)
	neg := false
	if *ptr < len(buf) && (buf[*ptr] == '+' || buf[*ptr] == '-') {
		neg = buf[*ptr] == '-'
		*ptr++
	}
	var v int32
	for *ptr < len(buf) && buf[*ptr] >= '0' && buf[*ptr] <= '9' {
		v = v*10 + int32(buf[*ptr]-'0')
		*ptr++
	}
	if neg {
		v = -v
	}
	return int16(v)
}

func skipRestOfField(buf []byte, ptr *int, includePipe bool) {
	for *ptr < len(buf) && isNonTerminator(buf[*ptr]) {
		*ptr++
	}
	if includePipe && *ptr < len(buf) && buf[*ptr] == '|' {
		*ptr++
	}
}

// Standard control layouts, grounded in the classic eight-button pad shape
// used by S1 (A, B, Select, Start, Up, Down, Left, Right).
var EightButtonLayout = []Control{
	{Type: TypeButton, Symbol: 'A', Name: "A"},
	{Type: TypeButton, Symbol: 'B', Name: "B"},
	{Type: TypeButton, Symbol: 's', Name: "Select"},
	{Type: TypeButton, Symbol: 'S', Name: "Start"},
	{Type: TypeButton, Symbol: 'U', Name: "Up"},
	{Type: TypeButton, Symbol: 'D', Name: "Down"},
	{Type: TypeButton, Symbol: 'L', Name: "Left"},
	{Type: TypeButton, Symbol: 'R', Name: "Right"},
}

// NewGamepad returns the standard single-controller 8-button digital pad
// used by S1/S2.
func NewGamepad() *StandardPad {
	return NewStandardPad("gamepad", 1, EightButtonLayout, nil)
}

// NewAnalogPad returns a pad with one centered analog stick plus the
// standard eight buttons, exercising TYPE_AXIS.
func NewAnalogPad() *StandardPad {
	axes := []Control{
		{Type: TypeAxis, Symbol: 'X', Name: "X axis", RMin: -128, RMax: 127, Centers: true},
		{Type: TypeAxis, Symbol: 'Y', Name: "Y axis", RMin: -128, RMax: 127, Centers: true},
	}
	return NewStandardPad("analogpad", 1, EightButtonLayout, axes)
}
