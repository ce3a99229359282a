package helper

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jquast/modem.xyz/internal/fifo"
	"github.com/jquast/modem.xyz/schema"
)

// syncBuffer is a goroutine-safe terminal output sink for tests.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testSession struct {
	helper    *Helper
	dataPipe  string
	readyPipe string
	out       *syncBuffer
	inWriter  *os.File
	done      chan error
}

func startSession(t *testing.T, cfg Config) *testSession {
	t.Helper()
	dir := t.TempDir()
	dataPipe := filepath.Join(dir, "data.fifo")
	readyPipe := filepath.Join(dir, "ready.fifo")
	if err := fifo.Mkfifo(dataPipe); err != nil {
		t.Fatalf("mkfifo data: %v", err)
	}
	if err := fifo.Mkfifo(readyPipe); err != nil {
		t.Fatalf("mkfifo ready: %v", err)
	}

	inReader, inWriter, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	t.Cleanup(func() {
		inReader.Close()
		inWriter.Close()
	})

	out := &syncBuffer{}
	cfg.DataPipe = dataPipe
	cfg.ReadyPipe = readyPipe
	if cfg.Title == "" {
		cfg.Title = "render-test"
	}
	cfg.Out = out
	cfg.In = inReader

	h := New(cfg)
	done := make(chan error, 1)
	go func() {
		done <- h.Run()
	}()

	return &testSession{
		helper:    h,
		dataPipe:  dataPipe,
		readyPipe: readyPipe,
		out:       out,
		inWriter:  inWriter,
		done:      done,
	}
}

func (s *testSession) send(t *testing.T, payload []byte) {
	t.Helper()
	if err := fifo.WriteMessage(context.Background(), s.dataPipe, payload, 2*time.Second); err != nil {
		t.Fatalf("send payload: %v", err)
	}
}

func (s *testSession) awaitReady(t *testing.T, timeout time.Duration) string {
	t.Helper()
	token, err := fifo.AwaitToken(context.Background(), s.readyPipe, timeout)
	if err != nil {
		t.Fatalf("await ready: %v", err)
	}
	return token
}

func (s *testSession) shutdown(t *testing.T) {
	t.Helper()
	if err := fifo.SendSentinel(context.Background(), s.dataPipe, 2*time.Second); err != nil {
		t.Fatalf("sentinel: %v", err)
	}
	select {
	case err := <-s.done:
		if err != nil {
			t.Fatalf("helper exited with error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("helper did not shut down")
	}
}

func TestSentinelShutsDownWithoutToken(t *testing.T) {
	s := startSession(t, Config{})

	if err := fifo.SendSentinel(context.Background(), s.dataPipe, 2*time.Second); err != nil {
		t.Fatalf("sentinel: %v", err)
	}
	select {
	case err := <-s.done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("helper did not exit on sentinel")
	}

	if _, err := fifo.AwaitToken(context.Background(), s.readyPipe, 100*time.Millisecond); !errors.Is(err, fifo.ErrTimeout) {
		t.Fatalf("expected no ready token after sentinel, got err=%v", err)
	}
	if got := s.helper.State(); got != StateShutdown {
		t.Fatalf("state = %v, want shutdown", got)
	}
	if s.helper.Cycles() != 0 {
		t.Fatalf("cycles = %d, want 0", s.helper.Cycles())
	}
}

func TestSingleCycleEmitsOneToken(t *testing.T) {
	s := startSession(t, Config{Title: "render-42-ibm_vga"})

	payload := []byte("\x1b[31mWELCOME TO THE BBS\x1b[0m")
	s.send(t, payload)

	if token := s.awaitReady(t, 5*time.Second); token != ReadyToken {
		t.Fatalf("token = %q, want %q", token, ReadyToken)
	}
	s.shutdown(t)

	out := s.out.String()
	if !strings.Contains(out, "\x1b[m\x1b[2J\x1b[H\x1b[?25l") {
		t.Fatalf("output missing reset sequence: %q", out)
	}
	if !strings.Contains(out, "\x1b]0;render-42-ibm_vga\a") {
		t.Fatalf("output missing title escape: %q", out)
	}
	if !strings.Contains(out, string(payload)) {
		t.Fatalf("output missing payload")
	}
	if s.helper.Cycles() != 1 {
		t.Fatalf("cycles = %d, want 1", s.helper.Cycles())
	}
}

func TestCursorReassertedAfterPayload(t *testing.T) {
	s := startSession(t, Config{})

	// Payload re-enables the cursor; the helper must re-hide it after
	// painting, not only during reset.
	payload := []byte("art\x1b[?25h")
	s.send(t, payload)
	s.awaitReady(t, 5*time.Second)
	s.shutdown(t)

	out := s.out.String()
	show := strings.LastIndex(out, "\x1b[?25h")
	hide := strings.LastIndex(out, "\x1b[?25l")
	if show < 0 {
		t.Fatalf("payload cursor-show escape not forwarded")
	}
	if hide < show {
		t.Fatalf("cursor not re-hidden after payload (show=%d hide=%d)", show, hide)
	}
}

func TestTitleReappliedBeforeEverySignal(t *testing.T) {
	s := startSession(t, Config{Title: "render-7-topaz"})

	for i := 0; i < 3; i++ {
		s.send(t, []byte("banner"))
		s.awaitReady(t, 5*time.Second)
	}
	s.shutdown(t)

	// Once at startup plus once per reset-and-restore.
	want := 4
	if got := strings.Count(s.out.String(), "\x1b]0;render-7-topaz\a"); got != want {
		t.Fatalf("title applied %d times, want %d", got, want)
	}
	if s.helper.Cycles() != 3 {
		t.Fatalf("cycles = %d, want 3", s.helper.Cycles())
	}
}

func TestDrainDiscardsDeviceReports(t *testing.T) {
	s := startSession(t, Config{SettleWindow: 30 * time.Millisecond})

	// Banner with an embedded cursor-position query; the terminal (the
	// test) answers on the input side before the helper signals ready.
	s.send(t, []byte("probe\x1b[6n"))
	if _, err := s.inWriter.Write([]byte("\x1b[24;80R")); err != nil {
		t.Fatalf("write response: %v", err)
	}

	s.awaitReady(t, 5*time.Second)

	// Next cycle starts from a clean screen with no residual response
	// bytes: the second payload renders and signals normally.
	s.send(t, []byte("second banner"))
	s.awaitReady(t, 5*time.Second)
	s.shutdown(t)

	out := s.out.String()
	if strings.Contains(out, "\x1b[24;80R") {
		t.Fatalf("device report leaked into terminal output")
	}
}

func TestReadyDelayedUntilInputQuiesces(t *testing.T) {
	s := startSession(t, Config{SettleWindow: 40 * time.Millisecond})

	s.send(t, []byte("busy banner"))

	// Feed input continuously; the helper must not signal ready while
	// reads keep succeeding within the settle window.
	stop := make(chan struct{})
	go func() {
		defer close(stop)
		for i := 0; i < 10; i++ {
			s.inWriter.Write([]byte("\x1b[1;1R"))
			time.Sleep(15 * time.Millisecond)
		}
	}()

	if _, err := fifo.AwaitToken(context.Background(), s.readyPipe, 100*time.Millisecond); !errors.Is(err, fifo.ErrTimeout) {
		t.Fatalf("ready token arrived while input still flowing (err=%v)", err)
	}
	<-stop

	s.awaitReady(t, 5*time.Second)
	s.shutdown(t)
}

func TestDrainOverrunIsFatal(t *testing.T) {
	s := startSession(t, Config{
		SettleWindow: 20 * time.Millisecond,
		MaxDrain:     150 * time.Millisecond,
	})

	s.send(t, []byte("poison banner"))

	// Keep the input side saturated past the drain cap.
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				s.inWriter.Write(bytes.Repeat([]byte("\x1b[1;1R"), 64))
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
	defer close(stop)

	select {
	case err := <-s.done:
		if !errors.Is(err, schema.ErrDrainOverrun) {
			t.Fatalf("expected drain overrun, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("helper did not terminate on drain overrun")
	}

	if _, err := fifo.AwaitToken(context.Background(), s.readyPipe, 100*time.Millisecond); !errors.Is(err, fifo.ErrTimeout) {
		t.Fatalf("no ready token expected after overrun, got err=%v", err)
	}
}

func TestTwoSequentialBannersTwoOrderedTokens(t *testing.T) {
	s := startSession(t, Config{})

	s.send(t, []byte("first"))
	s.awaitReady(t, 5*time.Second)

	// Simulate a slow screenshot tool between cycles.
	time.Sleep(150 * time.Millisecond)

	s.send(t, []byte("second"))
	s.awaitReady(t, 5*time.Second)
	s.shutdown(t)

	out := s.out.String()
	first := strings.Index(out, "first")
	second := strings.Index(out, "second")
	if first < 0 || second < 0 || second < first {
		t.Fatalf("payloads out of order: first=%d second=%d", first, second)
	}
	if s.helper.Cycles() != 2 {
		t.Fatalf("cycles = %d, want 2", s.helper.Cycles())
	}
}
