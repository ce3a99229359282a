// Package fifo wraps the named-pipe primitives used for the capture
// handshake: a data pipe carrying one banner payload per open/close
// cycle, and a ready pipe carrying a single token per cycle.
package fifo

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// ErrTimeout indicates a pipe operation exceeded its deadline.
	ErrTimeout = errors.New("fifo: operation timed out")
	// ErrNoReader indicates no peer opened the read side in time.
	ErrNoReader = errors.New("fifo: no reader")
)

// openRetryInterval paces non-blocking open attempts while waiting for
// the peer to appear.
const openRetryInterval = 10 * time.Millisecond

// Mkfifo creates a named pipe at path, readable and writable only by
// the owner.
func Mkfifo(path string) error {
	return unix.Mkfifo(path, 0o600)
}

// ReadMessage blocks until a writer opens the pipe, then reads until
// EOF and returns the full message. One message per writer open/close
// cycle; a writer that opens and closes without writing produces an
// empty message.
func ReadMessage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WriteMessage delivers one message: it waits up to timeout for a
// reader to open the pipe, writes data, and closes so the reader
// observes EOF. The context cancels the wait early.
func WriteMessage(ctx context.Context, path string, data []byte, timeout time.Duration) error {
	f, err := openWriter(ctx, path, timeout)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return nil
}

// SendSentinel opens the write side and closes it without writing,
// delivering the zero-length shutdown sentinel to the reader.
func SendSentinel(ctx context.Context, path string, timeout time.Duration) error {
	f, err := openWriter(ctx, path, timeout)
	if err != nil {
		return err
	}
	return f.Close()
}

// WriteToken writes a single newline-terminated token to the pipe.
// Blocks until a reader opens the pipe; the token carries no payload so
// the write itself cannot stall on size.
func WriteToken(path, token string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(token + "\n"); err != nil {
		return err
	}
	return nil
}

// AwaitToken blocks until the peer writes one token line, bounded by
// timeout. On timeout the pending open is unblocked internally so no
// reader goroutine is left behind.
func AwaitToken(ctx context.Context, path string, timeout time.Duration) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := os.Open(path)
		if err != nil {
			ch <- result{"", err}
			return
		}
		defer f.Close()
		line, err := bufio.NewReader(f).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			ch <- result{"", err}
			return
		}
		ch <- result{strings.TrimSpace(line), nil}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		return res.line, res.err
	case <-timer.C:
		unblockRead(path)
		return "", ErrTimeout
	case <-ctx.Done():
		unblockRead(path)
		return "", ctx.Err()
	}
}

// openWriter opens the write side without blocking forever: a named
// pipe open(O_WRONLY) blocks until a reader appears, so it polls with
// O_NONBLOCK (ENXIO while no reader) until the deadline.
func openWriter(ctx context.Context, path string, timeout time.Duration) (*os.File, error) {
	deadline := time.Now().Add(timeout)
	for {
		fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
		if err == nil {
			// Reader is attached; switch back to blocking writes.
			if err := unix.SetNonblock(fd, false); err != nil {
				unix.Close(fd)
				return nil, err
			}
			return os.NewFile(uintptr(fd), path), nil
		}
		if !errors.Is(err, unix.ENXIO) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, ErrNoReader
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(openRetryInterval):
		}
	}
}

// unblockRead completes an abandoned blocking read-side open by briefly
// attaching a writer. Opening the write side non-blocking succeeds once
// the reader is mid-open; closing it delivers EOF.
func unblockRead(path string) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	unix.Close(fd)
}
