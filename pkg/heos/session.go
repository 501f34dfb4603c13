package heos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Session constants
const (
	// DefaultPort is the HEOS CLI control port, distinct from the UPnP/HTTP port.
	DefaultPort = 1255

	pollInterval = 250 * time.Millisecond
	readChunk    = 4096
)

var underProcess = []byte("command under process")

// Session is a command/response TCP connection to one device. Commands are
// strictly serialized: one reply is read before the next command is written.
// A session never reconnects; after any failure it stays closed.
type Session struct {
	conn   net.Conn
	addr   string
	frames *frameReader
	mu     sync.Mutex
	closed atomic.Bool
}

// Dial opens a session to host on the given control port (DefaultPort if 0).
func Dial(ctx context.Context, host string, port int) (*Session, error) {
	if port == 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}

	log.Debug().Str("addr", addr).Msg("HEOS session opened")

	return newSession(conn, addr), nil
}

func newSession(conn net.Conn, addr string) *Session {
	return &Session{conn: conn, addr: addr, frames: newFrameReader(conn)}
}

// Addr returns the remote host:port.
func (s *Session) Addr() string {
	return s.addr
}

// Connected reports whether the session can still be used.
func (s *Session) Connected() bool {
	return !s.closed.Load()
}

// Close tears the connection down. It is safe to call concurrently with Send.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	log.Debug().Str("addr", s.addr).Msg("HEOS session closed")
	return s.conn.Close()
}

// Send writes an encoded command and returns the raw reply frame.
// Any I/O failure closes the session.
func (s *Session) Send(ctx context.Context, cmd []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() {
		return nil, ErrNotConnected
	}

	deadline, _ := ctx.Deadline()
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("set write deadline: %w", err)
	}

	log.Debug().
		Str("addr", s.addr).
		Bytes("command", bytes.TrimSpace(cmd)).
		Msg("HEOS TX")

	if _, err := s.conn.Write(cmd); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("write command: %w", err)
	}

	for {
		frame, eof, err := s.frames.next(ctx)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		if eof {
			_ = s.Close()
		}

		if bytes.Contains(frame, underProcess) && !eof {
			log.Debug().Str("addr", s.addr).Msg("HEOS command under process, waiting")
			continue
		}

		log.Debug().
			Str("addr", s.addr).
			Int("len", len(frame)).
			Msg("HEOS RX")

		return frame, nil
	}
}

// pollReader is a connection whose reads can be bounded by a deadline.
type pollReader interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// frameReader splits the inbound byte stream into \r\n terminated frames.
// Bytes past the first terminator are kept for the next call.
type frameReader struct {
	r     pollReader
	buf   []byte
	chunk []byte
}

func newFrameReader(r pollReader) *frameReader {
	return &frameReader{r: r, chunk: make([]byte, readChunk)}
}

// next accumulates bytes until a terminator arrives or the peer closes the
// connection. A deadline expiry is the would-block case: the buffer and ctx
// are re-checked and the read continues. eof reports that the peer closed
// and the returned bytes are whatever it sent before that.
func (f *frameReader) next(ctx context.Context) (frame []byte, eof bool, err error) {
	for {
		if i := bytes.Index(f.buf, []byte(CommandTerminator)); i >= 0 {
			n := i + len(CommandTerminator)
			frame = append([]byte(nil), f.buf[:n]...)
			f.buf = f.buf[n:]
			return frame, false, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		if err := f.r.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return nil, false, fmt.Errorf("set read deadline: %w", err)
		}

		n, err := f.r.Read(f.chunk)
		f.buf = append(f.buf, f.chunk[:n]...)

		switch {
		case err == nil && n > 0:
			continue
		case err == nil, errors.Is(err, io.EOF):
			// Zero bytes read: the peer closed the connection.
			if len(f.buf) == 0 {
				return nil, true, ErrConnectionClosed
			}
			frame, f.buf = f.buf, nil
			return frame, true, nil
		case errors.Is(err, os.ErrDeadlineExceeded):
			continue
		default:
			return nil, false, fmt.Errorf("read reply: %w", err)
		}
	}
}
