package backlog

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func dialAndWrite(t *testing.T, addr string, payload string) {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(payload)); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestServer_AppendsReceivedBytesWithPeerPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logfile.log")
	s := New(0, 4, DefaultFileSink(path, nil), nil)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	addr := s.Addr().String()
	dialAndWrite(t, addr, "hello\n")

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		data, _ := os.ReadFile(path)
		if len(data) > 0 {
			if !strings.Contains(string(data), "hello\n") {
				t.Fatalf("unexpected content: %q", data)
			}
			if !strings.Contains(string(data), "127.0.0.1:") {
				t.Fatalf("expected peer address prefix, got: %q", data)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("logfile was never written")
}

func TestServer_MultipleRecordsAreEachOpenWriteFlushClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logfile.log")

	var calls int
	sink := func(record []byte) {
		calls++
		DefaultFileSink(path, nil)(record)
	}

	s := New(0, 4, sink, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	addr := s.Addr().String()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	conn.Write([]byte("first\n"))
	time.Sleep(20 * time.Millisecond)
	conn.Write([]byte("second\n"))
	conn.Close()

	time.Sleep(50 * time.Millisecond)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "first\n") || !strings.Contains(string(data), "second\n") {
		t.Errorf("expected both records appended, got: %q", data)
	}
}

func TestServer_StopClosesListenerAndWaitsForHandlers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logfile.log")
	s := New(0, 4, DefaultFileSink(path, nil), nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if _, err := net.Dial("tcp", s.Addr().String()); err == nil {
		t.Error("expected dial to a stopped server to fail")
	}
}
