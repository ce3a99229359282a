// Package modemxyz renders telnet server banners to PNG images, either
// directly through an ANSI rasterizer or by displaying them in real
// terminal emulators and photographing the window.
package modemxyz

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"pkt.systems/pslog"

	"github.com/jquast/modem.xyz/core"
	"github.com/jquast/modem.xyz/internal/appconfig"
	"github.com/jquast/modem.xyz/internal/logx"
	"github.com/jquast/modem.xyz/internal/persist"
	"github.com/jquast/modem.xyz/internal/rasterize"
	"github.com/jquast/modem.xyz/internal/termlaunch"
	"github.com/jquast/modem.xyz/internal/xvfb"
	"github.com/jquast/modem.xyz/schema"
)

// DefaultRun names the run snapshot used when no label is given.
const DefaultRun = "capture"

// bannerCapturer is the pool surface the pipeline drives.
type bannerCapturer interface {
	Capture(ctx context.Context, req schema.CaptureRequest) (schema.CaptureResult, error)
	Close(ctx context.Context)
}

// PipelineOptions tunes pipeline construction.
type PipelineOptions struct {
	// Run labels the persisted run snapshot; re-running the same label
	// skips banners that already completed.
	Run string
	// HelperCommand is the argv prefix that runs the session helper
	// inside each terminal. Defaults to the current executable with the
	// "helper" subcommand.
	HelperCommand []string
	// Sinks receive capture lifecycle events.
	Sinks []core.EventSink
}

// Pipeline composes the live capture pool, the direct rasterizer, the
// run state store, and event fan-out.
type Pipeline struct {
	cfg    appconfig.Config
	run    string
	pool   bannerCapturer
	store  *persist.Store
	events core.EventSink
}

// NewPipeline builds a capture pipeline from the application config.
// When no X display is available a virtual one is started and owned by
// the pipeline.
func NewPipeline(ctx context.Context, cfg appconfig.Config, opts PipelineOptions) (*Pipeline, error) {
	log := pslog.Ctx(ctx)

	launcher, err := termlaunch.ByName(cfg.Capture.Backend)
	if err != nil {
		return nil, err
	}

	var display core.DisplayServer
	if ambient := os.Getenv("DISPLAY"); ambient != "" {
		display = ambientDisplay(ambient)
	} else {
		server, err := xvfb.Start(ctx)
		if err != nil {
			return nil, err
		}
		display = virtualDisplay{server}
	}

	store, err := persist.NewStoreWithLogger(cfg.StateDir, log)
	if err != nil {
		display.Stop(ctx)
		return nil, err
	}

	helperCmd := opts.HelperCommand
	if len(helperCmd) == 0 {
		exe, err := os.Executable()
		if err != nil {
			display.Stop(ctx)
			return nil, fmt.Errorf("resolve helper command: %w", err)
		}
		helperCmd = []string{exe, "helper"}
	}

	run := opts.Run
	if run == "" {
		run = DefaultRun
	}

	events := NewEventFanout(opts.Sinks...)
	pool := core.NewPool(core.PoolConfig{
		Columns:        cfg.Capture.Columns,
		Rows:           cfg.Capture.Rows,
		FontSize:       cfg.Capture.FontSize,
		HelperCommand:  helperCmd,
		CheckDupes:     cfg.Capture.CheckDupes,
		CRTEffects:     cfg.Capture.CRTEffects,
		PayloadTimeout: time.Duration(cfg.Capture.PayloadTimeoutSeconds) * time.Second,
		ReadyTimeout:   time.Duration(cfg.Capture.ReadyTimeoutSeconds) * time.Second,
		PostReadyDelay: time.Duration(cfg.Capture.PostReadyDelayMS) * time.Millisecond,
	}, core.PoolDeps{
		Launcher: launcher,
		Capturer: core.X11Capturer{},
		Display:  display,
		Events:   events,
		Logger:   log,
	})

	return &Pipeline{
		cfg:    cfg,
		run:    run,
		pool:   pool,
		store:  store,
		events: events,
	}, nil
}

// CaptureAll drives every request through the live capture pool, one
// banner at a time. Per-banner failures are recorded in the manifest
// and do not abort the run; the run snapshot is saved after every
// banner so an interrupted run resumes where it stopped.
func (p *Pipeline) CaptureAll(ctx context.Context, requests []schema.CaptureRequest) (schema.RunManifest, error) {
	log := pslog.Ctx(ctx).With("run", p.run)
	manifest := schema.RunManifest{}

	snapshot, found, err := p.store.Load(p.run)
	if err != nil {
		return manifest, err
	}
	if !found {
		snapshot = persist.RunSnapshot{StartedAt: time.Now().UTC()}
	}
	completed := snapshot.Completed()

	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return manifest, err
		}
		if prior, ok := completed[req.Name]; ok {
			log.Debug("banner already captured, skipped", "banner", req.Name)
			manifest.Results = append(manifest.Results, prior)
			continue
		}

		reqCtx := logx.ContextWithBannerLogger(ctx, logx.WithBanner(ctx, req.Name), req.Name)
		result, err := p.pool.Capture(reqCtx, req)
		if err != nil {
			log.Warn("banner capture failed", "banner", req.Name, "err", err)
		}
		manifest.Results = append(manifest.Results, result)
		if result.Failed {
			manifest.Failures = append(manifest.Failures, result)
		}

		snapshot.Results = append(snapshot.Results, result)
		if err := p.store.Save(p.run, snapshot); err != nil {
			log.Warn("run snapshot save failed", "err", err)
		}
	}
	return manifest, nil
}

// RenderJob is one direct rasterizer invocation.
type RenderJob struct {
	Name    string
	Input   string
	Output  string
	Options schema.RenderOptions
}

// RenderAll runs direct renders through a bounded worker group sized by
// the configured worker count. Per-banner failures are recorded, never
// fatal to the batch.
func (p *Pipeline) RenderAll(ctx context.Context, jobs []RenderJob) schema.RunManifest {
	manifest := schema.RunManifest{}
	workers := p.cfg.Render.Workers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, job := range jobs {
		group.Go(func() error {
			start := time.Now()
			result := schema.CaptureResult{Name: job.Name, Output: job.Output}
			_, err := rasterize.RenderFile(ctx, job.Input, job.Output, job.Options)
			result.Duration = time.Since(start).Milliseconds()
			if err != nil {
				result.Failed = true
				result.Reason = err.Error()
				result.Output = ""
				p.events.OnCaptureEvent(schema.CaptureEvent{
					Type: schema.EventRenderFailed, Banner: job.Name,
					Reason: err.Error(), Duration: time.Since(start),
				})
			} else {
				p.events.OnCaptureEvent(schema.CaptureEvent{
					Type: schema.EventRendered, Banner: job.Name,
					Output: job.Output, Duration: time.Since(start),
				})
			}
			mu.Lock()
			manifest.Results = append(manifest.Results, result)
			if result.Failed {
				manifest.Failures = append(manifest.Failures, result)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()
	return manifest
}

// Close tears down the pool, its terminal sessions, and any virtual
// display the pipeline started.
func (p *Pipeline) Close(ctx context.Context) {
	p.pool.Close(ctx)
}

// WriteManifest writes a run manifest as YAML.
func WriteManifest(path string, manifest schema.RunManifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ambientDisplay is an externally managed X display, left running at
// Close.
type ambientDisplay string

func (d ambientDisplay) Display() string          { return string(d) }
func (d ambientDisplay) Stop(ctx context.Context) {}

// virtualDisplay wraps a pipeline-owned Xvfb server.
type virtualDisplay struct {
	server *xvfb.Server
}

func (d virtualDisplay) Display() string          { return d.server.Display }
func (d virtualDisplay) Stop(ctx context.Context) { d.server.Stop(ctx) }
