package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrUsage indicates a command was invoked with the wrong arguments.
	ErrUsage = errors.New("usage error")
	// ErrSessionStuck indicates the ready token did not arrive in time.
	ErrSessionStuck = errors.New("session stuck: no ready token")
	// ErrHelperExited indicates the terminal helper process died.
	ErrHelperExited = errors.New("helper process exited")
	// ErrWindowNotFound indicates the terminal window could not be located by title.
	ErrWindowNotFound = errors.New("terminal window not found")
	// ErrDrainOverrun indicates the input drain exceeded its total time cap.
	ErrDrainOverrun = errors.New("input drain exceeded total cap")
	// ErrPipeClosed indicates a signaling pipe became unreadable or unwritable.
	ErrPipeClosed = errors.New("signaling pipe closed")
	// ErrCaptureFailed indicates a screenshot could not be produced.
	ErrCaptureFailed = errors.New("capture failed")
	// ErrBlankCapture indicates the capture succeeded but held no visible content.
	ErrBlankCapture = errors.New("capture content blank")
	// ErrDisplayUnavailable indicates no X11 display could be provided.
	ErrDisplayUnavailable = errors.New("display unavailable")
)

// RenderStage names a step of the direct render pipeline.
type RenderStage string

// Render pipeline stages, in execution order.
const (
	StageInit   RenderStage = "init"
	StageLoad   RenderStage = "load"
	StageRender RenderStage = "render"
	StageSave   RenderStage = "save"
)

// RenderError reports a failed direct render with the stage that failed
// and the engine's diagnostic, so a single banner's failure is
// attributable without crashing the run.
type RenderError struct {
	Stage      RenderStage
	Diagnostic string
	Err        error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Diagnostic != "" {
		return fmt.Sprintf("%s failed: %s", e.Stage, e.Diagnostic)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s failed", e.Stage)
}

// Unwrap returns the underlying cause.
func (e *RenderError) Unwrap() error {
	return e.Err
}

// NewRenderError wraps err as a stage failure.
func NewRenderError(stage RenderStage, diagnostic string, err error) *RenderError {
	return &RenderError{Stage: stage, Diagnostic: diagnostic, Err: err}
}

// StageOf returns the render stage of err, or "" when err is not a
// RenderError.
func StageOf(err error) RenderStage {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Stage
	}
	return ""
}
