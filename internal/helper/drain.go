package helper

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jquast/modem.xyz/schema"
)

// drain reads and discards pending terminal report responses (cursor
// position reports, device status replies) from the input stream.
// Banners routinely embed the queries that provoke these, and stray
// response bytes would bleed into the next frame or be echoed into a
// screenshot. Each read waits at most SettleWindow; a wait that expires
// with nothing available approximates "rendering has stabilized".
// Total drain time is capped by MaxDrain: exceeding it means the
// payload provokes responses faster than they settle, which is treated
// as a protocol error rather than looping forever.
func (h *Helper) drain() error {
	fd := int(h.cfg.In.Fd())
	deadline := time.Now().Add(h.cfg.MaxDrain)
	buf := make([]byte, 4096)
	drained := 0

	for {
		if time.Now().After(deadline) {
			h.cfg.Log.Error("drain overran cap",
				"cycle", h.count, "drained", drained, "cap", h.cfg.MaxDrain)
			return fmt.Errorf("%w after %d bytes", schema.ErrDrainOverrun, drained)
		}

		n, err := pollRead(fd, buf, h.cfg.SettleWindow)
		if err != nil {
			return fmt.Errorf("drain input: %w", err)
		}
		if n == 0 {
			// Quiesced: a full settle window passed with no input.
			if drained > 0 {
				h.cfg.Log.Debug("drained responses", "cycle", h.count, "bytes", drained)
			}
			return nil
		}
		drained += n
	}
}

// pollRead waits up to timeout for fd to become readable and reads at
// most len(buf) bytes. Returns 0 bytes on timeout or EOF.
func pollRead(fd int, buf []byte, timeout time.Duration) (int, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, int(timeout.Milliseconds()))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, nil
		}
		break
	}
	for {
		n, err := unix.Read(fd, buf)
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}
