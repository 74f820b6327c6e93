// Package capture persists a lossy inbound datagram stream to a local
// file for the lifetime of one session. The transport gives no ordering
// or delivery guarantees and none are assumed: datagrams are appended
// in arrival order, whatever that order is.
package capture

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/NPetersenDK/goprocam/internal"
)

// MaxDatagramSize is the largest payload a session reads in one
// datagram. The kernel silently discards anything beyond the buffer a
// read hands it, so a read that fills the whole buffer is counted as a
// truncation event: data loss, not a fatal condition.
const MaxDatagramSize = 64 * 1024

const defaultIdleTimeout = 5 * time.Second

// State is the session lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateListening
	StateDraining
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has finished, cleanly or not.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}

// Observer receives one callback per datagram. Implementations must be
// safe for use from the receive goroutine.
type Observer interface {
	ObserveDatagram(bytes int, truncated bool)
}

// Config describes one capture run.
type Config struct {
	Port        int
	OutputPath  string
	IdleTimeout time.Duration
	Observer    Observer
}

// Session owns a datagram socket and an output file from Start until
// the loop exits. Exactly one receive goroutine runs per session and it
// alone writes to the file; callers only observe counters.
type Session struct {
	id          uuid.UUID
	port        int
	outputPath  string
	idleTimeout time.Duration
	observer    Observer

	conn net.PacketConn
	file *os.File

	bytesReceived atomic.Uint64
	datagrams     atomic.Uint64
	truncated     atomic.Uint64
	state         atomic.Int32

	mu        sync.Mutex
	startedAt time.Time
	stoppedAt time.Time
	err       error

	cancel   chan struct{}
	stopOnce sync.Once
	finished chan struct{}
}

// Snapshot is a point-in-time view of a session's counters. It stays
// readable after failure so partial captures can still be accounted for.
type Snapshot struct {
	ID            uuid.UUID
	State         State
	BytesReceived uint64
	Datagrams     uint64
	Truncated     uint64
	StartedAt     time.Time
	StoppedAt     time.Time
	Elapsed       time.Duration
	Err           error
}

// Start binds the socket, opens the output file and launches the
// receive loop. Any failure before the loop starts releases whatever
// was already acquired.
func Start(cfg Config) (*Session, error) {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, &Error{Kind: KindConfiguration, Op: "start", Err: fmt.Errorf("port %d out of range", cfg.Port)}
	}
	if cfg.OutputPath == "" {
		return nil, &Error{Kind: KindConfiguration, Op: "start", Err: fmt.Errorf("output path is empty")}
	}
	if info, err := os.Stat(cfg.OutputPath); err == nil && info.IsDir() {
		return nil, &Error{Kind: KindStorage, Op: "start", Err: fmt.Errorf("output path %s is a directory", cfg.OutputPath)}
	}
	if _, err := os.Stat(filepath.Dir(cfg.OutputPath)); err != nil {
		return nil, &Error{Kind: KindStorage, Op: "start", Err: err}
	}

	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = defaultIdleTimeout
	}

	conn, err := net.ListenPacket("udp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, &Error{Kind: KindBind, Op: "start", Err: err}
	}

	file, err := os.OpenFile(cfg.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		conn.Close()
		return nil, &Error{Kind: KindStorage, Op: "start", Err: err}
	}

	s := &Session{
		id:          uuid.New(),
		port:        cfg.Port,
		outputPath:  cfg.OutputPath,
		idleTimeout: idle,
		observer:    cfg.Observer,
		conn:        conn,
		file:        file,
		cancel:      make(chan struct{}),
		finished:    make(chan struct{}),
	}
	s.startedAt = time.Now()
	s.state.Store(int32(StateListening))

	internal.Info("capture session started", internal.Fields{
		internal.FieldSession: s.id.String(),
		internal.FieldPort:    s.port,
		internal.OutputPath:   s.outputPath,
	})

	go s.run()
	return s, nil
}

func (s *Session) ID() uuid.UUID      { return s.id }
func (s *Session) OutputPath() string { return s.outputPath }

// Done is closed once the receive loop has exited and all resources
// are released.
func (s *Session) Done() <-chan struct{} { return s.finished }

// run is the only writer of the output file. It waits at most one idle
// timeout per iteration, so cancellation latency is bounded by that.
func (s *Session) run() {
	buf := make([]byte, MaxDatagramSize)
	var fatal *Error

	for fatal == nil {
		select {
		case <-s.cancel:
			s.finish(nil)
			return
		default:
		}

		_ = s.conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				// Idle is not an error; nothing arrived, wait again.
				s.state.Store(int32(StateListening))
				continue
			}
			fatal = &Error{Kind: KindTransport, Op: "receive", Err: err}
			break
		}

		// Write before counting so a snapshot never reports bytes that
		// are not in the file yet.
		if n > 0 {
			if _, werr := s.file.Write(buf[:n]); werr != nil {
				fatal = &Error{Kind: KindStorage, Op: "write", Err: werr}
				break
			}
			s.bytesReceived.Add(uint64(n))
		}
		s.datagrams.Add(1)
		truncated := n == len(buf)
		if truncated {
			s.truncated.Add(1)
		}
		if s.observer != nil {
			s.observer.ObserveDatagram(n, truncated)
		}
		s.state.Store(int32(StateDraining))
	}

	s.finish(fatal)
}

// finish releases the socket and the file on every exit path, then
// publishes the terminal state. A flush or close failure on an
// otherwise clean stop still fails the session: the artifact cannot be
// trusted beyond the last completed write.
func (s *Session) finish(fatal *Error) {
	if err := s.file.Sync(); err != nil && fatal == nil {
		fatal = &Error{Kind: KindStorage, Op: "flush", Err: err}
	}
	if err := s.file.Close(); err != nil && fatal == nil {
		fatal = &Error{Kind: KindStorage, Op: "close", Err: err}
	}
	s.conn.Close()

	s.mu.Lock()
	s.stoppedAt = time.Now()
	if fatal != nil {
		s.err = fatal
		s.state.Store(int32(StateFailed))
	} else {
		s.state.Store(int32(StateStopped))
	}
	s.mu.Unlock()

	if fatal != nil {
		internal.Error("capture session failed", internal.Fields{
			internal.FieldSession: s.id.String(),
			internal.FieldError:   fatal.Error(),
			internal.FieldBytes:   s.bytesReceived.Load(),
		})
	} else {
		internal.Info("capture session stopped", internal.Fields{
			internal.FieldSession: s.id.String(),
			internal.FieldBytes:   s.bytesReceived.Load(),
		})
	}

	close(s.finished)
}

// Stop signals cancellation and waits for the loop to exit. It is
// idempotent: every call returns the same terminal snapshot. The loop
// observes cancellation within one idle timeout.
func (s *Session) Stop() Snapshot {
	s.stopOnce.Do(func() {
		close(s.cancel)
	})
	<-s.finished
	return s.Snapshot()
}

// Err returns the fatal error of a failed session, nil otherwise.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot is safe to call concurrently with the receive loop and with
// Stop; it never blocks the loop.
func (s *Session) Snapshot() Snapshot {
	// The state load stays inside the mutex hold: finish publishes
	// stoppedAt and the terminal state under the same lock, so a
	// terminal snapshot always carries its stop timestamp.
	s.mu.Lock()
	state := State(s.state.Load())
	startedAt := s.startedAt
	stoppedAt := s.stoppedAt
	err := s.err
	s.mu.Unlock()

	var elapsed time.Duration
	if !startedAt.IsZero() {
		if stoppedAt.IsZero() {
			elapsed = time.Since(startedAt)
		} else {
			elapsed = stoppedAt.Sub(startedAt)
		}
	}

	return Snapshot{
		ID:            s.id,
		State:         state,
		BytesReceived: s.bytesReceived.Load(),
		Datagrams:     s.datagrams.Load(),
		Truncated:     s.truncated.Load(),
		StartedAt:     startedAt,
		StoppedAt:     stoppedAt,
		Elapsed:       elapsed,
		Err:           err,
	}
}
