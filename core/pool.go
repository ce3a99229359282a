package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/internal/crt"
	"github.com/jquast/modem.xyz/internal/encodings"
	"github.com/jquast/modem.xyz/internal/logx"
	"github.com/jquast/modem.xyz/schema"
)

// Pool defaults.
const (
	DefaultColumns  = 80
	DefaultRows     = 70
	DefaultFontSize = 12
)

// Terminal windows are placed side by side: without a window manager,
// XGetImage reads the framebuffer and overlapping windows capture each
// other's pixels.
const windowSpacing = 2000

// PoolConfig parameterizes the session pool.
type PoolConfig struct {
	Columns  int
	Rows     int
	FontSize int
	// HelperCommand is the argv prefix that runs the session helper
	// inside each terminal.
	HelperCommand []string

	CheckDupes bool
	CRTEffects bool

	PayloadTimeout time.Duration
	ReadyTimeout   time.Duration
	PostReadyDelay time.Duration
}

type sessionKey struct {
	group schema.FontGroupName
	cols  int
	rows  int
	cjk   bool
}

// Pool routes banners to terminal sessions, one per font group and
// geometry variant, created lazily and restarted when they die.
type Pool struct {
	cfg  PoolConfig
	deps PoolDeps

	mu          sync.Mutex
	sessions    map[sessionKey]*Session
	nextWindowX int
	closed      bool
}

// NewPool builds a pool with defaults filled.
func NewPool(cfg PoolConfig, deps PoolDeps) *Pool {
	if cfg.Columns <= 0 {
		cfg.Columns = DefaultColumns
	}
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultRows
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = DefaultFontSize
	}
	return &Pool{
		cfg:      cfg,
		deps:     deps,
		sessions: make(map[sessionKey]*Session),
	}
}

// Capture renders one banner through the terminal session its encoding
// routes to. A dead or corrupted session is relaunched and the banner
// retried once; a second failure tears down every session and tries a
// final time on a fresh pool.
func (p *Pool) Capture(ctx context.Context, req schema.CaptureRequest) (schema.CaptureResult, error) {
	start := time.Now()
	group := GroupForEncoding(req.Encoding)
	eastAsian := IsEastAsian(req.Encoding)
	result := schema.CaptureResult{Name: req.Name, Group: string(group.Name)}
	log := logx.WithEncoding(logx.WithBannerGroup(ctx, req.Name, group.Name), req.Encoding)
	ctx = logx.ContextWithBannerLogger(ctx, log, req.Name)
	ctx = logx.ContextWithGroup(ctx, group.Name)

	payload := schema.BannerPayload(encodings.Decode(req.Payload, req.Encoding))

	// Tall banners need a session with enough rows to hold them, or the
	// top scrolls off before the screenshot.
	if req.Rows <= 0 {
		if _, rows := encodings.Measure(string(payload)); rows > p.cfg.Rows {
			req.Rows = rows
		}
	}

	blank, err := p.captureWithRecovery(ctx, group, eastAsian, req, payload)
	result.Duration = time.Since(start).Milliseconds()
	if blank {
		result.Blank = true
		log.Info("banner content blank, skipped")
		p.publish(schema.CaptureEvent{
			Type: schema.EventCaptured, Banner: req.Name, Group: group.Name,
			Reason: "blank", Duration: time.Since(start),
		})
		return result, nil
	}
	if err != nil {
		result.Failed = true
		result.Reason = err.Error()
		p.publish(schema.CaptureEvent{
			Type: schema.EventCaptureFailed, Banner: req.Name, Group: group.Name,
			Reason: err.Error(), Duration: time.Since(start),
		})
		return result, err
	}

	p.postProcess(ctx, group, req.OutputPath)
	result.Output = req.OutputPath
	log.Debug("banner captured", "output", req.OutputPath, "duration", time.Since(start))
	p.publish(schema.CaptureEvent{
		Type: schema.EventCaptured, Banner: req.Name, Group: group.Name,
		Output: req.OutputPath, Duration: time.Since(start),
	})
	return result, nil
}

func (p *Pool) captureWithRecovery(ctx context.Context, group FontGroup, eastAsian bool, req schema.CaptureRequest, payload schema.BannerPayload) (bool, error) {
	log := logx.WithBannerGroup(ctx, req.Name, group.Name)

	sess, err := p.session(ctx, group, req.Columns, req.Rows, eastAsian)
	if err != nil {
		return false, err
	}
	blank, err := sess.Capture(ctx, payload, req.OutputPath)
	if err == nil || blank {
		return blank, err2nil(blank, err)
	}

	// Poison escapes can corrupt terminal state; relaunch and retry.
	log.Warn("capture failed, relaunching session for retry", "err", err)
	p.dropSession(ctx, group, req.Columns, req.Rows, eastAsian)
	sess, serr := p.session(ctx, group, req.Columns, req.Rows, eastAsian)
	if serr == nil {
		blank, err = sess.Capture(ctx, payload, req.OutputPath)
		if err == nil || blank {
			return blank, err2nil(blank, err)
		}
	}

	// Last resort: scrap every session and start over.
	log.Warn("retry failed, restarting all sessions", "err", err)
	p.stopAll(ctx)
	sess, serr = p.session(ctx, group, req.Columns, req.Rows, eastAsian)
	if serr != nil {
		return false, serr
	}
	blank, err = sess.Capture(ctx, payload, req.OutputPath)
	return blank, err2nil(blank, err)
}

// err2nil drops the sentinel error on blank captures: blankness is an
// outcome, not a failure.
func err2nil(blank bool, err error) error {
	if blank {
		return nil
	}
	return err
}

// session returns a live session for the key, starting one if needed.
func (p *Pool) session(ctx context.Context, group FontGroup, columns, rows int, eastAsian bool) (*Session, error) {
	cols := columns
	if cols <= 0 {
		cols = group.Columns
	}
	if cols <= 0 {
		cols = p.cfg.Columns
	}
	effRows := rows
	if effRows <= 0 {
		effRows = p.cfg.Rows
	}
	key := sessionKey{group: group.Name, cols: cols, rows: effRows, cjk: eastAsian}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, fmt.Errorf("pool is closed")
	}
	if sess, ok := p.sessions[key]; ok {
		if sess.Alive() {
			return sess, nil
		}
		pslog.Ctx(ctx).Warn("session died, restarting", "group", string(group.Name), "columns", cols)
		sess.Stop(ctx)
		delete(p.sessions, key)
	}

	sess := NewSession(SessionConfig{
		Group:          group,
		Columns:        cols,
		Rows:           effRows,
		FontSize:       p.cfg.FontSize,
		EastAsianWide:  eastAsian,
		Label:          sessionLabel(group.Name, cols, effRows, eastAsian, p.cfg.Rows),
		HelperCommand:  p.cfg.HelperCommand,
		CheckDupes:     p.cfg.CheckDupes,
		PayloadTimeout: p.cfg.PayloadTimeout,
		ReadyTimeout:   p.cfg.ReadyTimeout,
		PostReadyDelay: p.cfg.PostReadyDelay,
	}, p.deps.Launcher, p.deps.Capturer, p.display())
	if err := sess.Start(ctx); err != nil {
		return nil, err
	}

	if err := p.deps.Capturer.Move(ctx, p.display(), sess.windowID, p.nextWindowX, 0); err == nil {
		p.nextWindowX += windowSpacing
	}

	p.sessions[key] = sess
	p.publish(schema.CaptureEvent{Type: schema.EventSessionStarted, Group: group.Name})
	return sess, nil
}

// sessionLabel disambiguates geometry and width variants of a group in
// window titles and logs.
func sessionLabel(name schema.FontGroupName, cols, rows int, cjk bool, defaultRows int) string {
	label := string(name)
	if cols != 80 {
		label = fmt.Sprintf("%s-%d", label, cols)
	}
	if rows != defaultRows {
		label = fmt.Sprintf("%s-%dr", label, rows)
	}
	if cjk {
		label += "-cjk"
	}
	return label
}

func (p *Pool) dropSession(ctx context.Context, group FontGroup, columns, rows int, eastAsian bool) {
	cols := columns
	if cols <= 0 {
		cols = group.Columns
	}
	if cols <= 0 {
		cols = p.cfg.Columns
	}
	effRows := rows
	if effRows <= 0 {
		effRows = p.cfg.Rows
	}
	key := sessionKey{group: group.Name, cols: cols, rows: effRows, cjk: eastAsian}

	p.mu.Lock()
	sess, ok := p.sessions[key]
	delete(p.sessions, key)
	p.mu.Unlock()
	if ok {
		sess.Stop(ctx)
		p.publish(schema.CaptureEvent{Type: schema.EventSessionStopped, Group: group.Name})
	}
}

// stopAll tears down every session and resets window placement.
func (p *Pool) stopAll(ctx context.Context) {
	p.mu.Lock()
	sessions := p.sessions
	p.sessions = make(map[sessionKey]*Session)
	p.nextWindowX = 0
	p.mu.Unlock()

	for _, sess := range sessions {
		sess.Stop(ctx)
		p.publish(schema.CaptureEvent{Type: schema.EventSessionStopped, Group: sess.cfg.Group.Name})
	}
	time.Sleep(500 * time.Millisecond)
}

// postProcess applies aspect correction and CRT effects to the capture.
func (p *Pool) postProcess(ctx context.Context, group FontGroup, path string) {
	aspect := group.AspectRatio
	if !p.cfg.CRTEffects {
		if aspect > 0 {
			if err := crt.ApplyFileAspectOnly(path, aspect); err != nil {
				pslog.Ctx(ctx).Warn("aspect correction failed", "path", path, "err", err)
			}
		}
		return
	}
	if err := crt.ApplyFile(path, aspect, crt.Options{
		NativeHeight: group.NativeHeight,
		FontSize:     p.cfg.FontSize,
	}); err != nil {
		pslog.Ctx(ctx).Warn("crt post-processing failed", "path", path, "err", err)
	}
}

// Close stops every session and the display server.
func (p *Pool) Close(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	sessions := p.sessions
	p.sessions = nil
	p.mu.Unlock()

	for _, sess := range sessions {
		sess.Stop(ctx)
		p.publish(schema.CaptureEvent{Type: schema.EventSessionStopped, Group: sess.cfg.Group.Name})
	}
	if p.deps.Display != nil {
		p.deps.Display.Stop(ctx)
	}
}

func (p *Pool) display() string {
	if p.deps.Display == nil {
		return ""
	}
	return p.deps.Display.Display()
}

func (p *Pool) publish(event schema.CaptureEvent) {
	if p.deps.Events != nil {
		p.deps.Events.OnCaptureEvent(event)
	}
}
