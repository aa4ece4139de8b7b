// Package monitor ingests the continuous "every command executed" feed of a
// Redis/Valkey server and fans parsed events out to subscribers.
package monitor

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"redistics/internal/model"
)

// Stream states. A stream moves idle -> starting -> streaming -> stopping ->
// idle; connection loss moves streaming -> idle directly and records the
// error.
const (
	StateIdle      = "idle"
	StateStarting  = "starting"
	StateStreaming = "streaming"
	StateStopping  = "stopping"
)

const dialTimeout = 5 * time.Second

// Engine runs one dedicated monitor connection per active session. The
// primary session connection is never touched; each stream owns its own
// socket so commands and the feed cannot interfere.
type Engine struct {
	mu      sync.Mutex
	streams map[string]*stream
	sinks   []model.EventSink
}

type stream struct {
	state   string
	conn    net.Conn
	done    chan struct{}
	stopReq bool
	dropped uint64
	lastErr string

	// per-stream subscribers, fixed at Start.
	sinks []model.EventSink
}

// NewEngine creates an engine. Sinks receive every stream's parsed events in
// emission order; per-stream subscribers attach at Start.
func NewEngine(sinks ...model.EventSink) *Engine {
	return &Engine{
		streams: make(map[string]*stream),
		sinks:   sinks,
	}
}

// Start opens a dedicated connection for the profile, issues MONITOR and
// begins the read loop on its own goroutine. The password must already be
// plaintext; credential resolution is the caller's concern. Extra sinks
// subscribe to this stream only, after the engine-wide ones.
func (e *Engine) Start(profile model.Profile, password string, extra ...model.EventSink) error {
	e.mu.Lock()
	st := e.streams[profile.ID]
	if st != nil && st.state != StateIdle {
		e.mu.Unlock()
		return model.ErrMonitorActive
	}
	st = &stream{state: StateStarting, done: make(chan struct{}), sinks: extra}
	e.streams[profile.ID] = st
	e.mu.Unlock()

	conn, err := e.handshake(profile, password)
	if err != nil {
		e.mu.Lock()
		st.state = StateIdle
		st.lastErr = err.Error()
		close(st.done)
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	if st.stopReq {
		// Stop arrived mid-handshake; never leave a half-open stream.
		st.state = StateIdle
		close(st.done)
		e.mu.Unlock()
		conn.Close()
		return nil
	}
	st.conn = conn
	st.state = StateStreaming
	e.mu.Unlock()

	log.Printf("Monitor stream started for profile %s (%s)", profile.ID, profile.Addr())
	go e.readLoop(profile.ID, st, conn)
	return nil
}

// Stop closes the stream's dedicated connection; the read loop detects the
// close and exits without reporting a spurious error.
func (e *Engine) Stop(id string) error {
	e.mu.Lock()
	st := e.streams[id]
	if st == nil || st.state == StateIdle {
		e.mu.Unlock()
		return model.ErrMonitorInactive
	}
	st.state = StateStopping
	st.stopReq = true
	conn := st.conn
	done := st.done
	e.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	<-done
	return nil
}

// StopAll stops every active stream; used on shutdown and registry close.
func (e *Engine) StopAll() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.streams))
	for id, st := range e.streams {
		if st.state != StateIdle {
			ids = append(ids, id)
		}
	}
	e.mu.Unlock()
	for _, id := range ids {
		if err := e.Stop(id); err != nil && err != model.ErrMonitorInactive {
			log.Printf("Error stopping monitor for %s: %v", id, err)
		}
	}
}

// Active reports whether the profile currently has a live stream.
func (e *Engine) Active(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.streams[id]
	return st != nil && (st.state == StateStreaming || st.state == StateStarting)
}

// State returns the stream state for the profile.
func (e *Engine) State(id string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st := e.streams[id]; st != nil {
		return st.state
	}
	return StateIdle
}

// Dropped returns how many malformed feed lines were discarded.
func (e *Engine) Dropped(id string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st := e.streams[id]; st != nil {
		return st.dropped
	}
	return 0
}

// LastError returns the error recorded by the last abnormal transition.
func (e *Engine) LastError(id string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if st := e.streams[id]; st != nil {
		return st.lastErr
	}
	return ""
}

// handshake dials the server, authenticates and switches the connection into
// monitor mode. The feed is line-oriented text; everything request/response
// stays on the client library elsewhere.
func (e *Engine) handshake(profile model.Profile, password string) (net.Conn, error) {
	var conn net.Conn
	var err error
	if profile.TLS {
		dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: dialTimeout}}
		conn, err = dialer.Dial("tcp", profile.Addr())
	} else {
		conn, err = net.DialTimeout("tcp", profile.Addr(), dialTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open monitor connection: %w", err)
	}

	r := bufio.NewReader(conn)
	if password != "" {
		args := []string{"AUTH", password}
		if profile.Username != "" {
			args = []string{"AUTH", profile.Username, password}
		}
		if err := roundTrip(conn, r, args...); err != nil {
			conn.Close()
			return nil, fmt.Errorf("monitor auth failed: %w", err)
		}
	}
	if err := roundTrip(conn, r, "MONITOR"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("monitor command failed: %w", err)
	}
	return &bufferedConn{Conn: conn, r: r}, nil
}

func (e *Engine) readLoop(id string, st *stream, conn net.Conn) {
	defer close(st.done)
	r := conn.(*bufferedConn).r

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			e.mu.Lock()
			stopped := st.stopReq
			st.state = StateIdle
			st.conn = nil
			if stopped {
				st.lastErr = ""
				log.Printf("Monitor stream for %s stopped", id)
			} else {
				st.lastErr = err.Error()
				log.Printf("Monitor stream for %s lost: %v", id, err)
			}
			e.mu.Unlock()
			conn.Close()
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" || line == "+OK" {
			continue
		}
		content := strings.TrimPrefix(line, "+")

		ev, err := ParseLine(content)
		if err != nil {
			e.mu.Lock()
			st.dropped++
			e.mu.Unlock()
			continue
		}
		// Single delivery path: subscribers see every session's events in
		// emission order.
		for _, s := range e.sinks {
			s.OnEvent(ev)
		}
		for _, s := range st.sinks {
			s.OnEvent(ev)
		}
	}
}

// roundTrip sends one command and expects an OK-class status reply.
func roundTrip(conn net.Conn, r *bufio.Reader, args ...string) error {
	var b strings.Builder
	b.WriteByte('*')
	b.WriteString(strconv.Itoa(len(args)))
	b.WriteString("\r\n")
	for _, a := range args {
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(len(a)))
		b.WriteString("\r\n")
		b.WriteString(a)
		b.WriteString("\r\n")
	}
	conn.SetDeadline(time.Now().Add(dialTimeout))
	defer conn.SetDeadline(time.Time{})
	if _, err := conn.Write([]byte(b.String())); err != nil {
		return err
	}
	reply, err := r.ReadString('\n')
	if err != nil {
		return err
	}
	reply = strings.TrimRight(reply, "\r\n")
	if strings.HasPrefix(reply, "-") {
		return fmt.Errorf("server replied %s", strings.TrimPrefix(reply, "-"))
	}
	return nil
}

// bufferedConn keeps the handshake's buffered reader attached to the socket
// so no feed bytes are lost between handshake and read loop.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}
