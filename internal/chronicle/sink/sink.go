// Package sink implements Chronicle's output strategies: Stdout, File,
// and RollFile. A Sink is handed a contiguous readable range by the
// drain goroutine; it must never panic across that boundary, so I/O
// failures are reported through a FaultHook and returned from Flush as
// an error value.
package sink

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// FlushPolicy controls how aggressively a file-backed sink pushes bytes
// past the user-space buffer.
type FlushPolicy int

const (
	// FlushBuffered leaves bytes in the OS's own write buffer.
	FlushBuffered FlushPolicy = iota
	// FlushToKernel flushes to the kernel after every write.
	FlushToKernel
	// FlushToDisk flushes to the kernel and fsyncs after every write.
	FlushToDisk
)

// FaultHook reports a non-fatal sink error. Sinks call it before
// returning the same error from Flush.
type FaultHook func(sinkKind string, err error)

// Sink consumes bytes handed to it by the drain goroutine.
type Sink interface {
	// Flush writes every byte of p, in order.
	Flush(p []byte) error
	// Close releases any held resources.
	Close() error
}

// NewStdout returns a Sink that writes to the process's standard
// output. Write errors are reported through fault and also returned
// from Flush.
func NewStdout(fault FaultHook) Sink {
	return &stdoutSink{fault: fault}
}

type stdoutSink struct {
	mu    sync.Mutex
	fault FaultHook
}

func (s *stdoutSink) Flush(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stdout.Write(p); err != nil {
		if s.fault != nil {
			s.fault("stdout", err)
		}
		return err
	}
	return nil
}

func (s *stdoutSink) Close() error { return nil }

// NewFile opens path in append mode and returns a Sink that writes to
// it, applying policy after each write.
func NewFile(path string, policy FlushPolicy, fault FaultHook) (Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}
	return &fileSink{file: f, policy: policy, fault: fault}, nil
}

type fileSink struct {
	mu     sync.Mutex
	file   *os.File
	policy FlushPolicy
	fault  FaultHook
}

func (s *fileSink) Flush(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAndApplyPolicy(s.file, p, s.policy); err != nil {
		if s.fault != nil {
			s.fault("file", err)
		}
		return err
	}
	return nil
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func writeAndApplyPolicy(f *os.File, p []byte, policy FlushPolicy) error {
	if _, err := f.Write(p); err != nil {
		return fmt.Errorf("sink: write: %w", err)
	}
	// os.File does no user-space buffering: once Write returns, p is
	// already in the kernel, so only FlushToDisk has anything left to do.
	switch policy {
	case FlushToDisk:
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sink: sync: %w", err)
		}
	}
	return nil
}

// RollFileConfig configures a size-rolling file sink.
type RollFileConfig struct {
	// Prefix is prepended to every generated file name, including any
	// directory components.
	Prefix string
	// MaxBytes is the size threshold at or above which the sink rolls
	// to a new file before the next write.
	MaxBytes int64
	Policy   FlushPolicy
}

// NewRollFile returns a Sink that rolls to a newly named file whenever
// the current file has reached cfg.MaxBytes. No file is opened until
// the first Flush call.
func NewRollFile(cfg RollFileConfig, fault FaultHook) Sink {
	return &rollFileSink{cfg: cfg, fault: fault}
}

type rollFileSink struct {
	mu          sync.Mutex
	cfg         RollFileConfig
	fault       FaultHook
	file        *os.File
	currentSize int64
	seq         int
}

func (s *rollFileSink) Flush(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil || s.currentSize >= s.cfg.MaxBytes {
		if err := s.roll(); err != nil {
			if s.fault != nil {
				s.fault("rollfile", err)
			}
			return err
		}
	}

	if err := writeAndApplyPolicy(s.file, p, s.cfg.Policy); err != nil {
		if s.fault != nil {
			s.fault("rollfile", err)
		}
		return err
	}
	s.currentSize += int64(len(p))
	return nil
}

func (s *rollFileSink) roll() error {
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("sink: close rolled file: %w", err)
		}
	}

	s.seq++
	name := s.cfg.Prefix + rollTimestamp(time.Now()) + "-" + strconv.Itoa(s.seq) + ".log"

	f, err := os.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sink: open %s: %w", name, err)
	}
	s.file = f
	s.currentSize = 0
	return nil
}

func (s *rollFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// rollTimestamp renders <YYYY><M><D><H><M><S> with no zero-padding on
// any component but the year, matching the on-disk naming contract.
func rollTimestamp(t time.Time) string {
	return strconv.Itoa(t.Year()) +
		strconv.Itoa(int(t.Month())) +
		strconv.Itoa(t.Day()) +
		strconv.Itoa(t.Hour()) +
		strconv.Itoa(t.Minute()) +
		strconv.Itoa(t.Second())
}
