// Package logger implements Chronicle's public-facing domain logger:
// the per-name façade that formats records, ships ERROR/FATAL copies
// to a backlog server, and pushes rendered bytes into an owned
// AsyncWorker.
package logger

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/ehsaniara/chronicle/internal/chronicle/backup"
	"github.com/ehsaniara/chronicle/internal/chronicle/pool"
	"github.com/ehsaniara/chronicle/internal/chronicle/record"
	"github.com/ehsaniara/chronicle/internal/chronicle/sink"
	"github.com/ehsaniara/chronicle/internal/chronicle/worker"
	"github.com/ehsaniara/chronicle/pkg/chronicleerr"
	"github.com/ehsaniara/chronicle/pkg/oplog"
)

// SinkKind tags which Sink implementation a SinkSpec describes.
type SinkKind int

const (
	SinkStdout SinkKind = iota
	SinkFile
	SinkRollFile
)

// SinkSpec is the builder's tagged union standing in for a "create of
// type T" call: one kind plus the parameters that kind needs.
type SinkSpec struct {
	Kind SinkKind

	// File / RollFile
	Path     string
	Policy   sink.FlushPolicy
	MaxBytes int64 // RollFile only
}

// Logger is Chronicle's domain logger: an immutable name, an ordered
// list of sinks, and an owned AsyncWorker. Safe for concurrent use by
// any number of goroutines.
type Logger struct {
	name  string
	sinks []sink.Sink
	w     *worker.AsyncWorker

	backupAddr string
	backupPool *pool.Pool
	backupC    *backup.Client

	fault       *oplog.Logger
	producerSeq uint64
}

func (l *Logger) nextProducerID() uint64 {
	return atomic.AddUint64(&l.producerSeq, 1)
}

func (l *Logger) emit(level record.Level, file string, line int, format string, args ...interface{}) {
	r := record.Record{
		Level:      level,
		File:       file,
		Line:       line,
		LoggerName: l.name,
		ProducerID: l.nextProducerID(),
		Timestamp:  time.Now(),
		Payload:    record.Sprintf(format, args...),
	}
	rendered := record.Render(r)

	if level.IsRemoteEligible() && l.backupPool != nil && l.backupAddr != "" {
		future := l.backupPool.Submit(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return l.backupC.Send(ctx, l.backupAddr, rendered)
		})
		if err := future.Wait(); err != nil && l.fault != nil {
			l.fault.Warn("backup hop failed", "logger", l.name, "addr", l.backupAddr, "error", err)
		}
	}

	l.w.Push(rendered)
}

func (l *Logger) Debug(file string, line int, format string, args ...interface{}) {
	l.emit(record.Debug, file, line, format, args...)
}

func (l *Logger) Info(file string, line int, format string, args ...interface{}) {
	l.emit(record.Info, file, line, format, args...)
}

func (l *Logger) Warn(file string, line int, format string, args ...interface{}) {
	l.emit(record.Warn, file, line, format, args...)
}

func (l *Logger) Error(file string, line int, format string, args ...interface{}) {
	l.emit(record.Error, file, line, format, args...)
}

// Fatal renders and delivers the record like Error, then stops this
// logger's worker (flushing pending bytes) and terminates the process,
// matching the teacher's Logger.Fatal convention.
func (l *Logger) Fatal(file string, line int, format string, args ...interface{}) {
	l.emit(record.Fatal, file, line, format, args...)
	l.Stop()
	os.Exit(1)
}

// Stop drains and stops this logger's AsyncWorker and closes its sinks.
// Safe to call more than once.
func (l *Logger) Stop() {
	l.w.Stop()
	for _, s := range l.sinks {
		if err := s.Close(); err != nil && l.fault != nil {
			l.fault.Warn("sink close failed", "logger", l.name, "error", err)
		}
	}
}

// Name returns the logger's registered name.
func (l *Logger) Name() string { return l.name }

func fanOutSink(sinks []sink.Sink, fault *oplog.Logger, loggerName string) func([]byte) {
	return func(p []byte) {
		for _, s := range sinks {
			if err := s.Flush(p); err != nil && fault != nil {
				fault.Error("sink flush failed", "logger", loggerName, "error", err)
			}
		}
	}
}

// Builder constructs a Logger. Zero value is ready to use.
type Builder struct {
	name       string
	specs      []SinkSpec
	mode       worker.Mode
	workerCfg  worker.Config
	backupAddr string
	backupPool *pool.Pool
	fault      *oplog.Logger
}

// NewBuilder returns a Builder with Chronicle's default worker sizing.
func NewBuilder(name string) *Builder {
	return &Builder{
		name: name,
		mode: worker.Safe,
		workerCfg: worker.Config{
			InitialCapacity: 4096,
			Threshold:       1 << 20,
			LinearGrowth:    65536,
		},
	}
}

func (b *Builder) AddSink(spec SinkSpec) *Builder {
	b.specs = append(b.specs, spec)
	return b
}

func (b *Builder) Mode(mode worker.Mode) *Builder {
	b.mode = mode
	return b
}

func (b *Builder) WorkerConfig(cfg worker.Config) *Builder {
	b.workerCfg = cfg
	return b
}

func (b *Builder) BackupTo(addr string, pool *pool.Pool) *Builder {
	b.backupAddr = addr
	b.backupPool = pool
	return b
}

func (b *Builder) FaultLogger(l *oplog.Logger) *Builder {
	b.fault = l
	return b
}

// Build constructs the Logger. A non-empty name is a precondition, not
// a recoverable failure — callers that can't supply one have a bug, so
// Build panics rather than returning an error for it. If no sinks were
// added, a single stdout sink is supplied.
func (b *Builder) Build() (*Logger, error) {
	if b.name == "" {
		panic(chronicleerr.ProgrammerErr("logger: builder requires a non-empty name"))
	}

	specs := b.specs
	if len(specs) == 0 {
		specs = []SinkSpec{{Kind: SinkStdout}}
	}

	faultHook := func(kind string, err error) {
		if b.fault != nil {
			b.fault.Error("sink fault", "logger", b.name, "sink", kind, "error", err)
		}
	}

	sinks := make([]sink.Sink, 0, len(specs))
	for _, spec := range specs {
		s, err := buildSink(spec, faultHook)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	l := &Logger{
		name:       b.name,
		sinks:      sinks,
		backupAddr: b.backupAddr,
		backupPool: b.backupPool,
		backupC:    backup.New(),
		fault:      b.fault,
	}
	l.w = worker.New(b.workerCfg, b.mode, fanOutSink(sinks, b.fault, b.name))
	return l, nil
}

func buildSink(spec SinkSpec, fault sink.FaultHook) (sink.Sink, error) {
	switch spec.Kind {
	case SinkStdout:
		return sink.NewStdout(fault), nil
	case SinkFile:
		return sink.NewFile(spec.Path, spec.Policy, fault)
	case SinkRollFile:
		return sink.NewRollFile(sink.RollFileConfig{
			Prefix:   spec.Path,
			MaxBytes: spec.MaxBytes,
			Policy:   spec.Policy,
		}, fault), nil
	default:
		return nil, fmt.Errorf("logger: unknown sink kind %d", spec.Kind)
	}
}
