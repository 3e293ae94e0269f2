package sink

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

func TestStdoutSink_WritesToProcessStdout(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	var faults []error
	s := NewStdout(func(kind string, err error) { faults = append(faults, err) })

	if err := s.Flush([]byte("hello\n")); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	w.Close()

	buf := make([]byte, 64)
	n, _ := r.Read(buf)
	if got := string(buf[:n]); got != "hello\n" {
		t.Errorf("stdout got %q, want %q", got, "hello\n")
	}
	if len(faults) != 0 {
		t.Errorf("unexpected faults: %v", faults)
	}
}

func TestFileSink_AppendsAcrossFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	s, err := NewFile(path, FlushBuffered, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	if err := s.Flush([]byte("first\n")); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := s.Flush([]byte("second\n")); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "first\nsecond\n" {
		t.Errorf("file contents = %q, want %q", got, "first\nsecond\n")
	}
}

func TestFileSink_SurvivesReopenInAppendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	s1, err := NewFile(path, FlushToDisk, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	_ = s1.Flush([]byte("a\n"))
	_ = s1.Close()

	s2, err := NewFile(path, FlushToDisk, nil)
	if err != nil {
		t.Fatalf("NewFile (reopen): %v", err)
	}
	_ = s2.Flush([]byte("b\n"))
	_ = s2.Close()

	got, _ := os.ReadFile(path)
	if string(got) != "a\nb\n" {
		t.Errorf("file contents = %q, want %q", got, "a\nb\n")
	}
}

func TestFileSink_ReportsFaultOnWriteToClosedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	s, err := NewFile(path, FlushBuffered, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	fs := s.(*fileSink)
	fs.file.Close() // force the next write to fail

	var faultKind string
	s2 := &fileSink{file: fs.file, policy: FlushBuffered, fault: func(kind string, err error) { faultKind = kind }}
	if err := s2.Flush([]byte("x")); err == nil {
		t.Fatal("expected write error on closed file")
	}
	if faultKind != "file" {
		t.Errorf("fault kind = %q, want %q", faultKind, "file")
	}
}

// TestRollFile_RollsOnSize drives §8's RollFile universal property: every
// produced file is no larger than max_bytes + the largest single record,
// and the files concatenated in creation order reproduce the submitted
// byte stream exactly.
func TestRollFile_RollsOnSize(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "chronicle-")

	const maxBytes = 20
	s := NewRollFile(RollFileConfig{Prefix: prefix, MaxBytes: maxBytes, Policy: FlushBuffered}, nil)

	records := [][]byte{
		[]byte("0123456789\n"), // 11 bytes
		[]byte("0123456789\n"), // 11 bytes -> exceeds 20 on 2nd write, rolls before 3rd
		[]byte("0123456789\n"),
		[]byte("0123456789\n"),
		[]byte("short\n"),
	}

	var want strings.Builder
	for _, r := range records {
		if err := s.Flush(r); err != nil {
			t.Fatalf("Flush: %v", err)
		}
		want.Write(r)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		return rollSeq(t, names[i]) < rollSeq(t, names[j])
	})

	const maxRecordSize = 11
	var got strings.Builder
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", name, err)
		}
		if int64(len(data)) > maxBytes+maxRecordSize {
			t.Errorf("file %s has size %d, want <= %d", name, len(data), maxBytes+maxRecordSize)
		}
		got.Write(data)
	}

	if got.String() != want.String() {
		t.Errorf("concatenated roll files = %q, want %q", got.String(), want.String())
	}
}

func rollSeq(t *testing.T, name string) int {
	t.Helper()
	dash := strings.LastIndex(name, "-")
	dot := strings.LastIndex(name, ".log")
	if dash < 0 || dot < 0 || dash > dot {
		t.Fatalf("unexpected roll file name %q", name)
	}
	seq, err := strconv.Atoi(name[dash+1 : dot])
	if err != nil {
		t.Fatalf("unexpected roll file name %q: %v", name, err)
	}
	return seq
}

func TestRollFile_NoWriteBeforeFirstFlush(t *testing.T) {
	dir := t.TempDir()
	s := NewRollFile(RollFileConfig{Prefix: filepath.Join(dir, "p-"), MaxBytes: 1024}, nil)

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected no files before the first Flush, found %d", len(entries))
	}
	_ = s.Close()
}
