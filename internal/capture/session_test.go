package capture

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/fs-bullard/sl-wb-pi-api/internal/xdt"
)

// fakeFrame is a scripted frame buffer that counts commits.
type fakeFrame struct {
	width, height uint32
	pixelWidth    uint32
	data          []byte

	mu      sync.Mutex
	commits int
}

func (f *fakeFrame) Dimensions() (uint32, uint32, error) { return f.width, f.height, nil }
func (f *fakeFrame) PixelWidth() (uint32, error)         { return f.pixelWidth, nil }
func (f *fakeFrame) Data() ([]byte, error)               { return f.data, nil }

func (f *fakeFrame) Commit() {
	f.mu.Lock()
	f.commits++
	f.mu.Unlock()
}

func (f *fakeFrame) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

func grayFrame(width, height uint32, seed uint16) *fakeFrame {
	n := int(width) * int(height)
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(data[2*i:], seed+uint16(i))
	}
	return &fakeFrame{width: width, height: height, pixelWidth: 2, data: data}
}

// fakeDriver records the call sequence and lets tests script trigger
// behavior. The zero value delivers nothing.
type fakeDriver struct {
	mu    sync.Mutex
	calls []string

	maxWidth, maxHeight uint32

	// frames are handed to the streaming handler on each trigger, in order.
	// A nil entry means the trigger delivers nothing.
	frames []*fakeFrame
	// deliverInline invokes the handler from inside IssueSoftwareTrigger,
	// before CaptureFrame ever reaches its wait.
	deliverInline bool

	modeErr    error
	configErr  error
	streamErr  error
	triggerErr error

	handler  xdt.FrameHandler
	triggers int
}

func (d *fakeDriver) record(call string) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
}

func (d *fakeDriver) callList() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *fakeDriver) countCalls(name string) int {
	n := 0
	for _, c := range d.callList() {
		if c == name {
			n++
		}
	}
	return n
}

func (d *fakeDriver) Initialize() error { d.record("Initialize"); return nil }
func (d *fakeDriver) Shutdown() error   { d.record("Shutdown"); return nil }

func (d *fakeDriver) Devices() ([]xdt.DeviceInfo, error) {
	d.record("Devices")
	return []xdt.DeviceInfo{{ID: "fake-0", Model: "SL-1510", Serial: "T1"}}, nil
}

func (d *fakeDriver) Open(id string, bufferCount int) (xdt.Session, error) {
	d.record("Open")
	return d, nil
}

func (d *fakeDriver) Close() error { d.record("Close"); return nil }

func (d *fakeDriver) MaxFrameSize() (uint32, uint32, error) {
	d.record("MaxFrameSize")
	return d.maxWidth, d.maxHeight, nil
}

func (d *fakeDriver) SetAcquisitionMode(mode xdt.AcquisitionMode) error {
	d.record("SetAcquisitionMode")
	return d.modeErr
}

func (d *fakeDriver) ConfigureSequence(cfg xdt.SequenceConfig) error {
	d.record("ConfigureSequence")
	return d.configErr
}

func (d *fakeDriver) StartStreaming(handler xdt.FrameHandler) error {
	d.record("StartStreaming")
	if d.streamErr != nil {
		return d.streamErr
	}
	d.mu.Lock()
	d.handler = handler
	d.mu.Unlock()
	return nil
}

func (d *fakeDriver) StopStreaming() error {
	d.record("StopStreaming")
	return nil
}

func (d *fakeDriver) IssueSoftwareTrigger() error {
	d.record("IssueSoftwareTrigger")
	if d.triggerErr != nil {
		return d.triggerErr
	}

	d.mu.Lock()
	idx := d.triggers
	d.triggers++
	var frame *fakeFrame
	if idx < len(d.frames) {
		frame = d.frames[idx]
	}
	handler := d.handler
	d.mu.Unlock()

	if frame == nil || handler == nil {
		return nil
	}
	if d.deliverInline {
		handler(frame)
		return nil
	}
	go func() {
		time.Sleep(5 * time.Millisecond)
		handler(frame)
	}()
	return nil
}

func shortMargin(t *testing.T) {
	t.Helper()
	old := readoutMargin
	readoutMargin = 50 * time.Millisecond
	t.Cleanup(func() { readoutMargin = old })
}

func openTestSession(t *testing.T, d *fakeDriver) *Session {
	t.Helper()
	if d.maxWidth == 0 {
		d.maxWidth, d.maxHeight = 16, 8
	}
	s, err := Open(d, slog.Default())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCaptureFrameSuccess(t *testing.T) {
	frame := grayFrame(16, 8, 100)
	d := &fakeDriver{frames: []*fakeFrame{frame}}
	s := openTestSession(t, d)

	if err := s.CaptureFrame(20 * time.Millisecond); err != nil {
		t.Fatalf("CaptureFrame() failed: %v", err)
	}

	got, err := s.FrameData()
	if err != nil {
		t.Fatalf("FrameData() failed: %v", err)
	}
	if got.Width != 16 || got.Height != 8 || got.PixelSize != 2 {
		t.Errorf("frame geometry = %dx%d px%d, want 16x8 px2", got.Width, got.Height, got.PixelSize)
	}
	if got.Size != len(frame.data) {
		t.Errorf("frame size = %d, want %d", got.Size, len(frame.data))
	}
	for i := range frame.data {
		if got.Data[i] != frame.data[i] {
			t.Fatalf("frame byte %d = %#02x, want %#02x", i, got.Data[i], frame.data[i])
		}
	}
	if n := frame.commitCount(); n != 1 {
		t.Errorf("frame committed %d times, want 1", n)
	}
	if n := d.countCalls("StopStreaming"); n != 1 {
		t.Errorf("StopStreaming called %d times, want 1", n)
	}
}

func TestCaptureFrameOrdering(t *testing.T) {
	d := &fakeDriver{frames: []*fakeFrame{grayFrame(4, 4, 0)}, deliverInline: true}
	s := openTestSession(t, d)

	if err := s.CaptureFrame(20 * time.Millisecond); err != nil {
		t.Fatalf("CaptureFrame() failed: %v", err)
	}

	want := []string{"SetAcquisitionMode", "ConfigureSequence", "StartStreaming", "IssueSoftwareTrigger", "StopStreaming"}
	calls := d.callList()
	// Skip the Open-time calls at the head
	var got []string
	for _, c := range calls {
		switch c {
		case "Initialize", "Devices", "Open", "MaxFrameSize":
		default:
			got = append(got, c)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("capture calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("capture calls = %v, want %v", got, want)
		}
	}
}

func TestCaptureFrameInvalidExposureTouchesNoHardware(t *testing.T) {
	for _, exposure := range []time.Duration{0, 5 * time.Millisecond, 11 * time.Second, -time.Second} {
		d := &fakeDriver{}
		s := openTestSession(t, d)
		before := len(d.callList())

		if err := s.CaptureFrame(exposure); !errors.Is(err, ErrInvalidExposure) {
			t.Errorf("CaptureFrame(%v) = %v, want ErrInvalidExposure", exposure, err)
		}
		if after := len(d.callList()); after != before {
			t.Errorf("CaptureFrame(%v) made hardware calls: %v", exposure, d.callList()[before:])
		}
	}
}

func TestCaptureFrameBoundaryExposures(t *testing.T) {
	d := &fakeDriver{
		frames:        []*fakeFrame{grayFrame(4, 4, 0), grayFrame(4, 4, 1)},
		deliverInline: true,
	}
	s := openTestSession(t, d)

	if err := s.CaptureFrame(MinExposure); err != nil {
		t.Errorf("CaptureFrame(MinExposure) = %v, want nil", err)
	}
	if err := s.CaptureFrame(MaxExposure); err != nil {
		t.Errorf("CaptureFrame(MaxExposure) = %v, want nil", err)
	}
}

func TestCaptureFrameTimeout(t *testing.T) {
	shortMargin(t)
	d := &fakeDriver{} // trigger delivers nothing
	s := openTestSession(t, d)

	if err := s.CaptureFrame(20 * time.Millisecond); !errors.Is(err, ErrCaptureTimeout) {
		t.Fatalf("CaptureFrame() = %v, want ErrCaptureTimeout", err)
	}
	if n := d.countCalls("StopStreaming"); n != 1 {
		t.Errorf("StopStreaming called %d times, want 1", n)
	}
	if _, err := s.FrameData(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("FrameData() after timeout = %v, want ErrNoFrame", err)
	}
}

func TestCaptureFrameDeliveredBeforeWait(t *testing.T) {
	// The delivery callback fires inside the trigger call, before
	// CaptureFrame reaches its wait. The arm-before-trigger ordering must
	// keep this from being lost.
	d := &fakeDriver{frames: []*fakeFrame{grayFrame(8, 8, 7)}, deliverInline: true}
	s := openTestSession(t, d)

	if err := s.CaptureFrame(20 * time.Millisecond); err != nil {
		t.Fatalf("CaptureFrame() = %v, want nil", err)
	}
}

func TestCaptureFrameTriggerError(t *testing.T) {
	d := &fakeDriver{triggerErr: errors.New("bus stall")}
	s := openTestSession(t, d)

	if err := s.CaptureFrame(20 * time.Millisecond); !errors.Is(err, ErrTrigger) {
		t.Fatalf("CaptureFrame() = %v, want ErrTrigger", err)
	}
	if n := d.countCalls("StopStreaming"); n != 1 {
		t.Errorf("StopStreaming called %d times after trigger failure, want 1", n)
	}
}

func TestCaptureFrameConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fakeDriver)
		wantErr error
	}{
		{"mode error", func(d *fakeDriver) { d.modeErr = errors.New("nak") }, ErrConfiguration},
		{"sequence error", func(d *fakeDriver) { d.configErr = errors.New("nak") }, ErrConfiguration},
		{"stream error", func(d *fakeDriver) { d.streamErr = errors.New("nak") }, ErrStreamStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDriver{}
			tt.mutate(d)
			s := openTestSession(t, d)

			if err := s.CaptureFrame(20 * time.Millisecond); !errors.Is(err, tt.wantErr) {
				t.Errorf("CaptureFrame() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCaptureFrameOversizedFrameDropped(t *testing.T) {
	shortMargin(t)
	// Sensor reported 4x4 at open but delivers 16x16
	oversized := grayFrame(16, 16, 0)
	d := &fakeDriver{maxWidth: 4, maxHeight: 4, frames: []*fakeFrame{oversized}, deliverInline: true}
	s, err := Open(d, slog.Default())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.CaptureFrame(20 * time.Millisecond); !errors.Is(err, ErrCaptureTimeout) {
		t.Fatalf("CaptureFrame() = %v, want ErrCaptureTimeout", err)
	}
	if n := oversized.commitCount(); n != 1 {
		t.Errorf("oversized frame committed %d times, want 1", n)
	}
}

func TestCaptureFrameWrongPixelWidthDropped(t *testing.T) {
	shortMargin(t)
	frame := grayFrame(4, 4, 0)
	frame.pixelWidth = 1
	d := &fakeDriver{frames: []*fakeFrame{frame}, deliverInline: true}
	s := openTestSession(t, d)

	if err := s.CaptureFrame(20 * time.Millisecond); !errors.Is(err, ErrCaptureTimeout) {
		t.Fatalf("CaptureFrame() = %v, want ErrCaptureTimeout", err)
	}
	if n := frame.commitCount(); n != 1 {
		t.Errorf("frame committed %d times, want 1", n)
	}
}

func TestSecondCaptureReplacesFrame(t *testing.T) {
	first := grayFrame(16, 8, 10)
	second := grayFrame(8, 4, 200)
	d := &fakeDriver{frames: []*fakeFrame{first, second}, deliverInline: true}
	s := openTestSession(t, d)

	if err := s.CaptureFrame(20 * time.Millisecond); err != nil {
		t.Fatalf("first CaptureFrame() failed: %v", err)
	}
	if err := s.CaptureFrame(20 * time.Millisecond); err != nil {
		t.Fatalf("second CaptureFrame() failed: %v", err)
	}

	got, err := s.FrameData()
	if err != nil {
		t.Fatalf("FrameData() failed: %v", err)
	}
	if got.Width != 8 || got.Height != 4 {
		t.Errorf("frame geometry = %dx%d, want 8x4", got.Width, got.Height)
	}
	if got.Size != len(second.data) {
		t.Errorf("frame size = %d, want %d", got.Size, len(second.data))
	}
	for i := range second.data {
		if got.Data[i] != second.data[i] {
			t.Fatalf("frame byte %d = %#02x, want %#02x", i, got.Data[i], second.data[i])
		}
	}
}

func TestFrameDataBeforeFirstCapture(t *testing.T) {
	d := &fakeDriver{}
	s := openTestSession(t, d)

	if _, err := s.FrameData(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("FrameData() = %v, want ErrNoFrame", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	d := &fakeDriver{}
	s := openTestSession(t, d)

	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
	if n := d.countCalls("Close"); n != 1 {
		t.Errorf("device Close called %d times, want 1", n)
	}
	if n := d.countCalls("Shutdown"); n != 1 {
		t.Errorf("driver Shutdown called %d times, want 1", n)
	}

	if err := s.CaptureFrame(20 * time.Millisecond); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("CaptureFrame() after Close = %v, want ErrNotInitialized", err)
	}
}

func TestOpenFailsWithoutDevices(t *testing.T) {
	d := &emptyDriver{}
	if _, err := Open(d, slog.Default()); !errors.Is(err, xdt.ErrNoDevice) {
		t.Fatalf("Open() = %v, want ErrNoDevice", err)
	}
	if !d.shutdown {
		t.Error("driver was not shut down after failed open")
	}
}

type emptyDriver struct {
	shutdown bool
}

func (d *emptyDriver) Initialize() error                 { return nil }
func (d *emptyDriver) Shutdown() error                   { d.shutdown = true; return nil }
func (d *emptyDriver) Devices() ([]xdt.DeviceInfo, error) { return nil, nil }
func (d *emptyDriver) Open(string, int) (xdt.Session, error) {
	return nil, xdt.ErrNoDevice
}

func TestConcurrentCapturesSerialize(t *testing.T) {
	frames := make([]*fakeFrame, 8)
	for i := range frames {
		frames[i] = grayFrame(4, 4, uint16(i))
	}
	d := &fakeDriver{frames: frames}
	s := openTestSession(t, d)

	var wg sync.WaitGroup
	errs := make(chan error, len(frames))
	for i := 0; i < len(frames); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.CaptureFrame(20 * time.Millisecond)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent CaptureFrame() failed: %v", err)
		}
	}
	for i, frame := range frames {
		if n := frame.commitCount(); n != 1 {
			t.Errorf("frame %d committed %d times, want 1", i, n)
		}
	}
}
