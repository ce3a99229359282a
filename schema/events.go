package schema

import "time"

// CaptureEventType identifies the capture event payload.
type CaptureEventType string

const (
	// EventSessionStarted marks a terminal session coming up.
	EventSessionStarted CaptureEventType = "session_started"
	// EventSessionStopped marks a terminal session going down.
	EventSessionStopped CaptureEventType = "session_stopped"
	// EventCaptured marks a banner successfully captured.
	EventCaptured CaptureEventType = "captured"
	// EventCaptureFailed marks a banner that could not be captured.
	EventCaptureFailed CaptureEventType = "capture_failed"
	// EventRendered marks a banner rendered by the direct rasterizer.
	EventRendered CaptureEventType = "rendered"
	// EventRenderFailed marks a failed direct render.
	EventRenderFailed CaptureEventType = "render_failed"
)

// CaptureEvent is emitted by the pipeline as banners progress.
type CaptureEvent struct {
	Type     CaptureEventType
	Banner   string
	Group    FontGroupName
	Output   string
	Reason   string
	Duration time.Duration
}
