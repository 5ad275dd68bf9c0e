package touch

import (
	"encoding/binary"
	"time"
)

// Linux input event constants (linux/input-event-codes.h).
const (
	evSyn = 0x00
	evAbs = 0x03

	synReport  = 0
	synDropped = 3

	absMTSlot      = 0x2f
	absMTPositionX = 0x35
	absMTPositionY = 0x36
	absMTTracking  = 0x39

	inputPropPointer = 0x00
	inputPropDirect  = 0x01

	// inputEventSize is sizeof(struct input_event) on 64-bit kernels.
	inputEventSize = 24
	defaultSlots   = 10
)

type inputEvent struct {
	Time  time.Time
	Type  uint16
	Code  uint16
	Value int32
}

func decodeInputEvent(b []byte) inputEvent {
	sec := int64(binary.NativeEndian.Uint64(b[0:8]))
	usec := int64(binary.NativeEndian.Uint64(b[8:16]))
	return inputEvent{
		Time:  time.Unix(sec, usec*int64(time.Microsecond)),
		Type:  binary.NativeEndian.Uint16(b[16:18]),
		Code:  binary.NativeEndian.Uint16(b[18:20]),
		Value: int32(binary.NativeEndian.Uint32(b[20:24])),
	}
}

// axisRange is the min/max of an absolute axis as reported by EVIOCGABS.
type axisRange struct {
	Min, Max int32
}

func (a axisRange) normalize(v int32) float64 {
	span := float64(a.Max - a.Min)
	if span <= 0 {
		return 0
	}
	return float64(v-a.Min) / span
}

type slotState struct {
	tracking int32
	x, y     int32
}

func (s slotState) active() bool { return s.tracking >= 0 }

// mtDecoder assembles multitouch protocol-B events into frames. Y is
// flipped so that 1 is the top edge of the pad.
type mtDecoder struct {
	device string
	x, y   axisRange
	slot   int
	slots  []slotState

	dropping   bool
	hadContact bool
}

func newMTDecoder(device string, x, y axisRange, slots int) *mtDecoder {
	if slots <= 0 {
		slots = defaultSlots
	}
	d := &mtDecoder{device: device, x: x, y: y, slots: make([]slotState, slots)}
	for i := range d.slots {
		d.slots[i].tracking = -1
	}
	return d
}

// feed consumes one event. It returns a frame on SYN_REPORT, and resync is
// true when a SYN_DROPPED run has finished and slot state must be reloaded
// from the device.
func (d *mtDecoder) feed(ev inputEvent) (f Frame, emit bool, resync bool) {
	switch ev.Type {
	case evSyn:
		switch ev.Code {
		case synDropped:
			d.dropping = true
		case synReport:
			if d.dropping {
				d.dropping = false
				return Frame{}, false, true
			}
			return d.frame(ev.Time)
		}
	case evAbs:
		if d.dropping {
			return Frame{}, false, false
		}
		d.abs(ev.Code, ev.Value)
	}
	return Frame{}, false, false
}

func (d *mtDecoder) abs(code uint16, value int32) {
	if code == absMTSlot {
		d.slot = int(value)
		return
	}
	if d.slot < 0 || d.slot >= len(d.slots) {
		return
	}
	s := &d.slots[d.slot]
	switch code {
	case absMTTracking:
		s.tracking = value
	case absMTPositionX:
		s.x = value
	case absMTPositionY:
		s.y = value
	}
}

func (d *mtDecoder) frame(at time.Time) (Frame, bool, bool) {
	contacts := make([]Contact, 0, 2)
	for _, s := range d.slots {
		if !s.active() {
			continue
		}
		contacts = append(contacts, Contact{
			ID:   int(s.tracking),
			X:    d.x.normalize(s.x),
			Y:    1 - d.y.normalize(s.y),
			Live: true,
		})
	}
	// Report the transition to zero contacts once.
	if len(contacts) == 0 && !d.hadContact {
		return Frame{}, false, false
	}
	d.hadContact = len(contacts) > 0
	return Frame{Device: d.device, Timestamp: at, Contacts: contacts}, true, false
}

// load replaces slot state after a resync. Slices are indexed by slot.
func (d *mtDecoder) load(tracking, xs, ys []int32) {
	for i := range d.slots {
		d.slots[i] = slotState{tracking: -1}
		if i < len(tracking) {
			d.slots[i].tracking = tracking[i]
		}
		if i < len(xs) {
			d.slots[i].x = xs[i]
		}
		if i < len(ys) {
			d.slots[i].y = ys[i]
		}
	}
}

// DeviceInfo describes a discovered multitouch pad.
type DeviceInfo struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	Slots int    `json:"slots"`
}
