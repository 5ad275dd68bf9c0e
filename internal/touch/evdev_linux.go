//go:build linux

package touch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
	"pkt.systems/pslog"
)

const (
	iocRead = 2

	absMax       = 0x3f
	inputPropMax = 0x1f
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | typ<<8 | nr
}

func eviocgname(n int) uintptr { return ioc(iocRead, 'E', 0x06, uintptr(n)) }
func eviocgprop(n int) uintptr { return ioc(iocRead, 'E', 0x09, uintptr(n)) }
func eviocgmtslots(n int) uintptr { return ioc(iocRead, 'E', 0x0a, uintptr(n)) }
func eviocgbit(ev, n int) uintptr { return ioc(iocRead, 'E', uintptr(0x20+ev), uintptr(n)) }
func eviocgabs(code int) uintptr { return ioc(iocRead, 'E', uintptr(0x40+code), unsafe.Sizeof(absInfo{})) }

// absInfo mirrors struct input_absinfo.
type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

func ioctl(fd, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

func testBit(bits []byte, n int) bool {
	return n/8 < len(bits) && bits[n/8]&(1<<(uint(n)%8)) != 0
}

var errNotTouchpad = errors.New("not a multitouch touchpad")

type evdevDevice struct {
	file *os.File
	info DeviceInfo
	x, y axisRange
}

// openDevice opens path and checks that it is an indirect multitouch
// pointer with protocol-B slots.
func openDevice(path string) (*evdevDevice, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &evdevDevice{file: f, info: DeviceInfo{Path: path}}
	if err := d.control(d.query); err != nil {
		_ = f.Close()
		return nil, err
	}
	return d, nil
}

// control runs fn with the raw descriptor without switching the file to
// blocking mode, so Close still interrupts a pending Read.
func (d *evdevDevice) control(fn func(fd uintptr) error) error {
	raw, err := d.file.SyscallConn()
	if err != nil {
		return err
	}
	var fnErr error
	if err := raw.Control(func(fd uintptr) { fnErr = fn(fd) }); err != nil {
		return err
	}
	return fnErr
}

func (d *evdevDevice) query(fd uintptr) error {
	name := make([]byte, 256)
	if err := ioctl(fd, eviocgname(len(name)), unsafe.Pointer(&name[0])); err == nil {
		d.info.Name = strings.TrimRight(string(name), "\x00")
	}

	absBits := make([]byte, absMax/8+1)
	if err := ioctl(fd, eviocgbit(evAbs, len(absBits)), unsafe.Pointer(&absBits[0])); err != nil {
		return fmt.Errorf("query abs bits: %w", err)
	}
	for _, code := range []int{absMTSlot, absMTPositionX, absMTPositionY, absMTTracking} {
		if !testBit(absBits, code) {
			return errNotTouchpad
		}
	}

	props := make([]byte, inputPropMax/8+1)
	if err := ioctl(fd, eviocgprop(len(props)), unsafe.Pointer(&props[0])); err == nil {
		if testBit(props, inputPropDirect) || !testBit(props, inputPropPointer) {
			return errNotTouchpad
		}
	}

	var info absInfo
	if err := ioctl(fd, eviocgabs(absMTPositionX), unsafe.Pointer(&info)); err != nil {
		return fmt.Errorf("query x range: %w", err)
	}
	d.x = axisRange{Min: info.Minimum, Max: info.Maximum}
	if err := ioctl(fd, eviocgabs(absMTPositionY), unsafe.Pointer(&info)); err != nil {
		return fmt.Errorf("query y range: %w", err)
	}
	d.y = axisRange{Min: info.Minimum, Max: info.Maximum}
	if err := ioctl(fd, eviocgabs(absMTSlot), unsafe.Pointer(&info)); err == nil {
		d.info.Slots = int(info.Maximum) + 1
	}
	if d.info.Slots <= 0 {
		d.info.Slots = defaultSlots
	}
	return nil
}

// resync reloads every slot after the kernel dropped events.
func (d *evdevDevice) resync(dec *mtDecoder) error {
	read := func(code uint16) ([]int32, error) {
		buf := make([]int32, 1+d.info.Slots)
		buf[0] = int32(code)
		err := d.control(func(fd uintptr) error {
			return ioctl(fd, eviocgmtslots(4*len(buf)), unsafe.Pointer(&buf[0]))
		})
		return buf[1:], err
	}
	tracking, err := read(absMTTracking)
	if err != nil {
		return err
	}
	xs, err := read(absMTPositionX)
	if err != nil {
		return err
	}
	ys, err := read(absMTPositionY)
	if err != nil {
		return err
	}
	dec.load(tracking, xs, ys)
	return nil
}

// Discover lists multitouch touchpads under /dev/input.
func Discover() ([]DeviceInfo, error) {
	paths, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool { return eventIndex(paths[i]) < eventIndex(paths[j]) })

	var (
		found   []DeviceInfo
		openErr error
	)
	for _, p := range paths {
		d, err := openDevice(p)
		if err != nil {
			if !errors.Is(err, errNotTouchpad) && openErr == nil {
				openErr = err
			}
			continue
		}
		found = append(found, d.info)
		_ = d.file.Close()
	}
	if len(found) == 0 {
		if openErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoDevices, openErr)
		}
		return nil, ErrNoDevices
	}
	return found, nil
}

func eventIndex(path string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(filepath.Base(path), "event"))
	if err != nil {
		return 1 << 30
	}
	return n
}

// EvdevSource reads frames from a Linux evdev touchpad.
type EvdevSource struct {
	path string
	log  pslog.Logger
	loop loop
}

// NewEvdevSource creates a source for path. An empty path selects the
// first discovered touchpad at Start.
func NewEvdevSource(path string, logger pslog.Logger) *EvdevSource {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &EvdevSource{path: path, log: logger}
}

// Name returns the configured device path or "evdev".
func (s *EvdevSource) Name() string {
	if s.path == "" {
		return "evdev"
	}
	return s.path
}

// Start opens the device and begins reading.
func (s *EvdevSource) Start(ctx context.Context, h FrameHandler) error {
	path := s.path
	if path == "" {
		devs, err := Discover()
		if err != nil {
			return driverUnavailable("discover touchpad: %v", err)
		}
		path = devs[0].Path
	}
	dev, err := openDevice(path)
	if err != nil {
		return driverUnavailable("open %s: %v", path, err)
	}
	s.log.Info("touch device opened", "path", path, "name", dev.info.Name, "slots", dev.info.Slots)

	err = s.loop.start(ctx, func(context.Context) error {
		return s.read(dev, h)
	}, func() { _ = dev.file.Close() })
	if err != nil {
		_ = dev.file.Close()
		return err
	}
	return nil
}

func (s *EvdevSource) read(dev *evdevDevice, h FrameHandler) error {
	dec := newMTDecoder(dev.info.Name, dev.x, dev.y, dev.info.Slots)
	buf := make([]byte, inputEventSize*64)
	for {
		n, err := dev.file.Read(buf)
		if err != nil {
			if errors.Is(err, os.ErrClosed) {
				return nil
			}
			s.log.Warn("touch device read failed", "path", dev.info.Path, "err", err)
			return driverUnavailable("read %s: %v", dev.info.Path, err)
		}
		for off := 0; off+inputEventSize <= n; off += inputEventSize {
			f, emit, resync := dec.feed(decodeInputEvent(buf[off : off+inputEventSize]))
			if resync {
				if err := dev.resync(dec); err != nil {
					s.log.Debug("touch resync failed", "path", dev.info.Path, "err", err)
				}
				continue
			}
			if emit {
				h(f)
			}
		}
	}
}

// Stop closes the device.
func (s *EvdevSource) Stop() error { return s.loop.stop() }

// Wait blocks until the reader exits.
func (s *EvdevSource) Wait() error { return s.loop.wait() }
