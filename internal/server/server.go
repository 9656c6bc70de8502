package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreamware/ledgernode/internal/metrics"
	"github.com/dreamware/ledgernode/internal/protocol"
)

// DefaultIdleTimeout closes connections that send nothing for a minute.
const DefaultIdleTimeout = 60 * time.Second

// DefaultMaxLineLength bounds one request line, newline excluded.
const DefaultMaxLineLength = 64 << 10

// Handler answers one request line. ok false means no reply is written.
// *protocol.Dispatcher satisfies it.
type Handler interface {
	Handle(ctx context.Context, line string) (resp string, ok bool)
}

// Options configures a Server. Zero values select defaults.
type Options struct {
	IdleTimeout   time.Duration
	MaxLineLength int
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

// Server is the worker's TCP front end.
type Server struct {
	handler     Handler
	idleTimeout time.Duration
	maxLine     int
	log         *slog.Logger
	metrics     *metrics.Metrics

	mu      sync.Mutex
	ln      net.Listener
	conns   map[net.Conn]struct{}
	closing bool
	wg      sync.WaitGroup
}

func New(h Handler, opts Options) *Server {
	s := &Server{
		handler:     h,
		idleTimeout: opts.IdleTimeout,
		maxLine:     opts.MaxLineLength,
		log:         opts.Logger,
		metrics:     opts.Metrics,
		conns:       make(map[net.Conn]struct{}),
	}
	if s.idleTimeout <= 0 {
		s.idleTimeout = DefaultIdleTimeout
	}
	if s.maxLine <= 0 {
		s.maxLine = DefaultMaxLineLength
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "server")
	return s
}

// Listen binds addr. A bind failure, such as the port being in use, is
// returned to the caller and should end the process.
func (s *Server) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Info("listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until ctx is done, then waits for open
// connections to finish their current line. It returns nil after a
// context-driven shutdown and the accept error otherwise.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server: Serve called before Listen")
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.shutdown()
		case <-stop:
		}
	}()

	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				acceptErr = fmt.Errorf("accept: %w", err)
				s.log.Error("accept failed", "err", err)
				s.shutdown()
			}
			break
		}
		s.track(conn)
		s.wg.Add(1)
		go s.serveConn(ctx, conn)
	}

	s.wg.Wait()
	s.log.Info("server stopped")
	return acceptErr
}

// shutdown closes the listener and wakes every blocked read.
func (s *Server) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closing = true
	if s.ln != nil {
		_ = s.ln.Close()
	}
	for c := range s.conns {
		_ = c.SetReadDeadline(time.Now())
	}
}

func (s *Server) track(c net.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	s.metrics.ConnOpened()
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.metrics.ConnClosed()
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	// a line already read is answered even if shutdown starts meanwhile
	hctx := context.WithoutCancel(ctx)

	log := s.log.With("session", uuid.NewString(), "remote", conn.RemoteAddr().String())
	log.Info("connection opened")

	// room for the newline and a trailing CR
	r := bufio.NewReaderSize(deadlineReader{s: s, conn: conn}, s.maxLine+2)
	lines := 0
	for {
		raw, err := r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			if err = skipLine(r); err != nil {
				s.logReadEnd(log, err, lines)
				return
			}
			lines++
			log.Warn("line too long", "max", s.maxLine, "line", lines)
			if _, err := io.WriteString(conn, protocol.InvalidRequestReply+"\n"); err != nil {
				log.Warn("write failed", "err", err, "lines", lines)
				return
			}
			continue
		}
		if err != nil {
			if len(raw) > 0 {
				log.Debug("discarding partial line", "bytes", len(raw))
			}
			s.logReadEnd(log, err, lines)
			return
		}
		lines++

		resp, ok := s.handler.Handle(hctx, strings.TrimRight(string(raw), "\r\n"))
		if !ok {
			continue
		}
		if _, err := io.WriteString(conn, resp+"\n"); err != nil {
			log.Warn("write failed", "err", err, "lines", lines)
			return
		}
	}
}

// skipLine discards input up to and including the next newline.
func skipLine(r *bufio.Reader) error {
	for {
		_, err := r.ReadSlice('\n')
		if !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
	}
}

// deadlineReader re-arms the idle deadline before every read, so a line
// that trickles in is only cut off when the peer goes quiet.
type deadlineReader struct {
	s    *Server
	conn net.Conn
}

func (d deadlineReader) Read(p []byte) (int, error) {
	if err := d.s.armDeadline(d.conn); err != nil {
		return 0, err
	}
	return d.conn.Read(p)
}

var errClosing = errors.New("server shutting down")

// armDeadline pushes the idle deadline forward unless shutdown has begun.
// It runs under s.mu so it cannot overwrite the deadline set by shutdown.
func (s *Server) armDeadline(conn net.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return errClosing
	}
	return conn.SetReadDeadline(time.Now().Add(s.idleTimeout))
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// logReadEnd records why a connection stopped reading.
func (s *Server) logReadEnd(log *slog.Logger, err error, lines int) {
	var ne net.Error
	switch {
	case s.isClosing():
		log.Info("connection closed by shutdown", "lines", lines)
	case errors.Is(err, io.EOF):
		log.Info("connection closed by peer", "lines", lines)
	case errors.As(err, &ne) && ne.Timeout():
		log.Info("connection idle timeout", "timeout", s.idleTimeout, "lines", lines)
	default:
		log.Warn("connection read failed", "err", err, "lines", lines)
	}
}
