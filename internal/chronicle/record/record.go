// Package record defines Chronicle's log record and its pure rendering
// function.
package record

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"
)

// Level is a log record's severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// IsRemoteEligible reports whether records at this level are shipped to
// the backup server (§4.5: FATAL and ERROR only).
func (l Level) IsRemoteEligible() bool {
	return l == Error || l == Fatal
}

// Record is the tuple rendered into one log line: {level, file, line,
// logger name, producer id, timestamp, payload}. Go has no portable
// equivalent of an OS thread id; ProducerID is instead a per-Logger
// sequence number that the Logger assigns to each record it emits. It
// does not identify the calling goroutine: two records from the same
// goroutine carry different ids.
type Record struct {
	Level      Level
	File       string
	Line       int
	LoggerName string
	ProducerID uint64
	Timestamp  time.Time
	Payload    string
}

// Render produces the record's wire form: a single '\n'-terminated line
// shaped "[HH:MM:SS][0x<hex id>][<LEVEL>][<logger>][<file>:<line>]\t<payload>\n".
func Render(r Record) []byte {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(r.Timestamp.Format("15:04:05"))
	b.WriteString("][0x")
	b.WriteString(strconv.FormatUint(hashProducerID(r.ProducerID), 16))
	b.WriteString("][")
	b.WriteString(r.Level.String())
	b.WriteString("][")
	b.WriteString(r.LoggerName)
	b.WriteString("][")
	b.WriteString(r.File)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(r.Line))
	b.WriteString("]\t")
	b.WriteString(r.Payload)
	b.WriteByte('\n')
	return []byte(b.String())
}

// hashProducerID mirrors std::hash<std::thread::id> closely enough for
// the test scenarios' purposes: a deterministic, well-mixed hash of a
// producer identifier, not a reversible encoding of it.
func hashProducerID(id uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(id >> (8 * i))
	}
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// Sprintf formats a payload using POSIX-printf-flavoured conversion
// verbs, normalizing the legacy C verbs (%u, %ld) that have no direct
// Go analog before delegating to fmt.Sprintf. See §9's "Variadic printf
// formatting" design note.
func Sprintf(format string, args ...interface{}) string {
	return fmt.Sprintf(normalizeVerbs(format), args...)
}

// normalizeVerbs rewrites %u -> %d and %ld/%lld -> %d so callers can
// port C-style format strings unchanged.
func normalizeVerbs(format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}

		j := i + 1
		for j < len(format) && (format[j] == 'l' || format[j] == 'h') {
			j++
		}
		if j >= len(format) {
			b.WriteByte(c)
			continue
		}

		verb := format[j]
		if verb == 'u' {
			verb = 'd'
		}
		b.WriteByte('%')
		b.WriteByte(verb)
		i = j
	}
	return b.String()
}
