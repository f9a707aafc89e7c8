package scan

import (
	"context"
	"errors"
	"sync"

	"github.com/Flyrell/gatepass/internal/member"
)

// State is the camera state of a Station.
type State int

const (
	Idle State = iota
	Scanning
	// Resolving means a code was decoded, the camera is released and the
	// backend lookup is in flight.
	Resolving
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

var (
	// ErrStaleScan is returned when a result arrives for a scan the station
	// has since moved away from.
	ErrStaleScan = errors.New("scan is no longer active")
	// ErrNotResolved is returned by ScanAgain outside the Resolved state.
	ErrNotResolved = errors.New("no resolved scan to continue from")
)

// Resolver turns a payload into a scan result.
type Resolver interface {
	Resolve(ctx context.Context, payload string) (member.ScanResult, error)
}

// Station drives one camera through Idle, Scanning, Resolving and Resolved.
// Every Start begins a new generation; results of older generations are
// discarded.
type Station struct {
	camera   Camera
	resolver Resolver

	mu      sync.Mutex
	state   State
	capture Capture
	gen     uint64
	result  member.ScanResult
	err     error
}

// NewStation creates an idle Station.
func NewStation(camera Camera, resolver Resolver) *Station {
	return &Station{camera: camera, resolver: resolver}
}

// Snapshot is a consistent view of a Station.
type Snapshot struct {
	State  State
	Gen    uint64
	Result member.ScanResult
	Err    error
}

// Snapshot returns the current state, generation, result and last error.
func (s *Station) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Gen: s.gen, Result: s.result, Err: s.err}
}

// Start acquires the camera and enters Scanning. Starting while a capture is
// held returns the current one.
func (s *Station) Start(ctx context.Context) (uint64, <-chan string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.capture != nil {
		return s.gen, s.capture.Codes(), nil
	}

	c, err := s.camera.Open(ctx)
	if err != nil {
		s.state = Idle
		s.err = err
		return s.gen, nil, err
	}

	s.gen++
	s.capture = c
	s.state = Scanning
	s.result = member.ScanResult{}
	s.err = nil
	return s.gen, c.Codes(), nil
}

// Stop releases the camera and returns to Idle. Results of any in-flight
// resolve are discarded.
func (s *Station) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.releaseLocked()
	s.gen++
	s.state = Idle
	s.result = member.ScanResult{}
	return err
}

// Decoded handles a payload read during generation gen. The camera is
// released before the backend is called. The result is applied only if gen is
// still current; otherwise ErrStaleScan is returned. Any resolve error puts
// the station back to Idle.
func (s *Station) Decoded(ctx context.Context, gen uint64, payload string) (member.ScanResult, error) {
	s.mu.Lock()
	if gen != s.gen || s.state != Scanning {
		s.mu.Unlock()
		return member.ScanResult{}, ErrStaleScan
	}
	_ = s.releaseLocked()
	s.state = Resolving
	s.mu.Unlock()

	res, err := s.resolver.Resolve(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return member.ScanResult{}, ErrStaleScan
	}
	if err != nil {
		s.state = Idle
		s.err = err
		return member.ScanResult{}, err
	}
	s.state = Resolved
	s.result = res
	s.err = nil
	return res, nil
}

// ScanAgain leaves Resolved and starts a new scan.
func (s *Station) ScanAgain(ctx context.Context) (uint64, <-chan string, error) {
	s.mu.Lock()
	if s.state != Resolved {
		gen := s.gen
		s.mu.Unlock()
		return gen, nil, ErrNotResolved
	}
	s.state = Idle
	s.result = member.ScanResult{}
	s.mu.Unlock()

	return s.Start(ctx)
}

func (s *Station) releaseLocked() error {
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.capture = nil
	return err
}
