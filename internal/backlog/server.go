// Package backlog implements BacklogServer: the companion TCP server
// that durably appends received log bytes to a file, one
// open/write/flush/close cycle per record.
package backlog

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"github.com/ehsaniara/chronicle/pkg/oplog"
)

// RecordSink consumes one record already prefixed with the client's
// "ip:port".
type RecordSink func(record []byte)

// maxReadChunk bounds a single Read call per §4.10.
const maxReadChunk = 1023

// DefaultFileSink returns a RecordSink that opens path in append-binary
// mode, writes the full record, flushes, and closes — one
// open/write/flush/close cycle per record, giving each record the same
// atomicity-with-respect-to-other-records a single write(2) syscall
// would.
//
// A failure at any of those three steps means the backlog can no longer
// guarantee durability for records it has already accepted, so it is
// fatal: the process logs and aborts rather than silently dropping the
// record and continuing to serve connections.
func DefaultFileSink(path string, log *oplog.Logger) RecordSink {
	if log == nil {
		log = oplog.New()
	}
	return func(record []byte) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatal("backlog: open failed, aborting", "path", path, "error", err)
		}
		defer f.Close()

		if _, err := f.Write(record); err != nil {
			log.Fatal("backlog: write failed, aborting", "path", path, "error", err)
		}
		if err := f.Sync(); err != nil {
			log.Fatal("backlog: flush failed, aborting", "path", path, "error", err)
		}
	}
}

// Server accepts TCP connections and spawns one goroutine per
// connection, each appending received bytes to a file via its
// RecordSink. The OS-level listen backlog isn't tunable through Go's
// net package, so "backlog" here additionally bounds the number of
// connections served concurrently: once that many are in flight, further
// connections are still accepted but wait, unread, until one finishes.
type Server struct {
	port     int
	backlog  int
	onRecord RecordSink
	log      *oplog.Logger

	listener net.Listener
	sem      chan struct{}
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New returns a Server bound to port with the given accept backlog.
// onRecord is invoked once per received chunk, already prefixed with
// the client's "ip:port".
func New(port, backlog int, onRecord RecordSink, log *oplog.Logger) *Server {
	if log == nil {
		log = oplog.New()
	}
	if backlog < 1 {
		backlog = 1
	}
	return &Server{
		port:     port,
		backlog:  backlog,
		onRecord: onRecord,
		log:      log.WithMode("backlog"),
		sem:      make(chan struct{}, backlog),
	}
}

// Start binds the listening socket and begins accepting connections.
// It returns once the listener is bound; accepting happens on a
// background goroutine.
func (s *Server) Start() error {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	ln, err := net.Listen("tcp4", fmt.Sprintf("0.0.0.0:%d", s.port))
	if err != nil {
		return fmt.Errorf("backlog: listen on port %d: %w", s.port, err)
	}
	s.listener = ln
	s.log.Info("listening", "port", s.port, "backlog", s.backlog)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and waits for every in-flight connection
// handler to finish.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			return err
		}
	}
	s.wg.Wait()
	s.log.Info("stopped")
	return nil
}

// Addr returns the listener's bound address. Only valid after Start
// has returned successfully.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				s.log.Warn("accept error", "error", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-s.ctx.Done():
		return
	}

	peer := conn.RemoteAddr().String()
	buf := make([]byte, maxReadChunk)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			record := append([]byte(peer), buf[:n]...)
			s.onRecord(record)
		}
		if err != nil {
			if err != io.EOF {
				s.log.Debug("connection closed", "peer", peer, "error", err)
			}
			return
		}
	}
}
