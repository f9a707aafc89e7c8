package scan

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	// ErrCameraBusy is returned when a capture is already open on a camera.
	ErrCameraBusy = errors.New("camera already in use")
	// ErrCameraUnavailable wraps failures to acquire a capture device.
	ErrCameraUnavailable = errors.New("cannot access camera")
)

// Camera hands out exclusive capture sessions.
type Camera interface {
	Open(ctx context.Context) (Capture, error)
}

// Capture is an open capture session. Codes yields decoded payloads and is
// closed after Close.
type Capture interface {
	Codes() <-chan string
	Close() error
}

// ChannelCamera receives codes typed into the terminal, which is how
// keyboard-wedge scanners deliver them.
type ChannelCamera struct {
	mu     sync.Mutex
	active *chanCapture
}

// NewChannelCamera creates a ChannelCamera.
func NewChannelCamera() *ChannelCamera {
	return &ChannelCamera{}
}

// Open starts a capture. Only one capture may be open at a time.
func (c *ChannelCamera) Open(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, ErrCameraBusy
	}
	c.active = &chanCapture{camera: c, codes: make(chan string, 1)}
	return c.active, nil
}

// Submit delivers a code to the open capture. It reports false when no
// capture is open or the previous code has not been consumed yet.
func (c *ChannelCamera) Submit(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return false
	}
	select {
	case c.active.codes <- code:
		return true
	default:
		return false
	}
}

// Active reports whether a capture is open.
func (c *ChannelCamera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

type chanCapture struct {
	camera *ChannelCamera
	codes  chan string
	closed bool
}

func (cc *chanCapture) Codes() <-chan string { return cc.codes }

func (cc *chanCapture) Close() error {
	cc.camera.mu.Lock()
	defer cc.camera.mu.Unlock()
	if cc.closed {
		return nil
	}
	cc.closed = true
	close(cc.codes)
	if cc.camera.active == cc {
		cc.camera.active = nil
	}
	return nil
}

// DeviceCamera reads one payload per line from a QR reader device or FIFO.
// The path "-" reads standard input.
type DeviceCamera struct {
	path string

	mu     sync.Mutex
	busy   bool
	stdin  sync.Once
	shared <-chan string
}

// NewDeviceCamera creates a camera reading from path.
func NewDeviceCamera(path string) *DeviceCamera {
	return &DeviceCamera{path: path}
}

// Open acquires the device. Only one capture may be open at a time.
func (d *DeviceCamera) Open(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return nil, ErrCameraBusy
	}

	var (
		lines   <-chan string
		closer  io.Closer
		release = func() {
			d.mu.Lock()
			d.busy = false
			d.mu.Unlock()
		}
	)
	done := make(chan struct{})

	if d.path == "-" {
		// stdin cannot be reopened, so one reader outlives the captures
		d.stdin.Do(func() { d.shared = readLines(os.Stdin, nil) })
		lines = d.shared
	} else {
		f, err := os.Open(d.path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
		}
		lines = readLines(f, done)
		closer = f
	}

	d.busy = true
	return newLineCapture(lines, done, closer, release), nil
}

// readLines emits every non-empty trimmed line of r until EOF or done.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-done:
				return
			}
		}
	}()
	return out
}

type lineCapture struct {
	codes   chan string
	done    chan struct{}
	closer  io.Closer
	release func()
	once    sync.Once
}

func newLineCapture(lines <-chan string, done chan struct{}, closer io.Closer, release func()) *lineCapture {
	lc := &lineCapture{
		codes:   make(chan string),
		done:    done,
		closer:  closer,
		release: release,
	}
	go lc.forward(lines)
	return lc
}

func (lc *lineCapture) forward(lines <-chan string) {
	defer close(lc.codes)
	for {
		select {
		case <-lc.done:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			select {
			case lc.codes <- line:
			case <-lc.done:
				return
			}
		}
	}
}

func (lc *lineCapture) Codes() <-chan string { return lc.codes }

func (lc *lineCapture) Close() error {
	var err error
	lc.once.Do(func() {
		close(lc.done)
		if lc.closer != nil {
			err = lc.closer.Close()
		}
		lc.release()
	})
	return err
}
