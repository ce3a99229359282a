package schema

// BannerPayload is the opaque byte sequence a server sent before login:
// raw text, legacy 8-bit encoded bytes, and embedded ANSI escape sequences.
// It is never mutated, only forwarded. A zero-length payload is the
// reserved shutdown sentinel and is never displayed as content.
type BannerPayload []byte

// IsSentinel reports whether the payload is the reserved shutdown sentinel.
func (p BannerPayload) IsSentinel() bool {
	return len(p) == 0
}

// FontID identifies a bitmap font in the rasterizer's enumerated set.
type FontID string

// The fixed font set understood by the direct rasterizer.
const (
	FontCP437           FontID = "CP437"
	FontCP437_80x50     FontID = "CP437_80x50"
	FontCP737           FontID = "CP737"
	FontCP775           FontID = "CP775"
	FontCP850           FontID = "CP850"
	FontCP852           FontID = "CP852"
	FontCP855           FontID = "CP855"
	FontCP857           FontID = "CP857"
	FontCP860           FontID = "CP860"
	FontCP861           FontID = "CP861"
	FontCP862           FontID = "CP862"
	FontCP863           FontID = "CP863"
	FontCP865           FontID = "CP865"
	FontCP866           FontID = "CP866"
	FontCP869           FontID = "CP869"
	FontTerminus        FontID = "TERMINUS"
	FontSpleen          FontID = "SPLEEN"
	FontMicroKnight     FontID = "MICROKNIGHT"
	FontMicroKnightPlus FontID = "MICROKNIGHT_PLUS"
	FontMoSoul          FontID = "MOSOUL"
	FontPotNoodle       FontID = "POT_NOODLE"
	FontTopaz           FontID = "TOPAZ"
	FontTopazPlus       FontID = "TOPAZ_PLUS"
	FontTopaz500        FontID = "TOPAZ500"
	FontTopaz500Plus    FontID = "TOPAZ500_PLUS"
)

// RenderMode selects the rasterizer's rendering mode.
type RenderMode string

// Rendering modes supported by the direct rasterizer.
const (
	ModeNormal      RenderMode = "normal"
	ModeCED         RenderMode = "ced"
	ModeTransparent RenderMode = "transparent"
	ModeWorkbench   RenderMode = "workbench"
)

// RenderOptions configures a direct render. Zero values mean "engine
// default": Scale 0 renders at 1x, Bits 0 selects 8-pixel cells, Columns 0
// auto-detects width, empty Mode renders normally.
type RenderOptions struct {
	// Font is a symbolic font identifier resolved case-insensitively
	// against the fixed font set. Unknown or absent values fall back to
	// CP437.
	Font string
	// Scale is a positive integer multiplier for output pixel dimensions.
	Scale int
	// Bits selects character cell width semantics: 8 or 9.
	Bits int
	// Columns overrides the auto-detected column count.
	Columns int
	// Mode is one of normal, ced, transparent, workbench.
	Mode RenderMode
	// IceColors enables extended bright-background color interpretation
	// in place of blink attributes.
	IceColors bool
}

// EncodingName identifies a server's byte encoding (normalized form).
type EncodingName string

// FontGroupName identifies a terminal font group for live capture.
type FontGroupName string

// Live-capture font groups. Each group runs its own terminal instance.
const (
	GroupIBMVGA  FontGroupName = "ibm_vga"
	GroupTopaz   FontGroupName = "topaz"
	GroupPETSCII FontGroupName = "petscii"
	GroupATASCII FontGroupName = "atascii"
)

// CaptureRequest asks for one banner to be rendered through a live
// terminal session.
type CaptureRequest struct {
	// Name identifies the banner (used in logs, events, and the manifest).
	Name string
	// Payload is the banner byte stream.
	Payload BannerPayload
	// Encoding is the server encoding, used for font group routing and
	// legacy transcoding. Empty means cp437.
	Encoding EncodingName
	// Columns and Rows override the session geometry when nonzero.
	Columns int
	Rows    int
	// OutputPath is where the PNG is written.
	OutputPath string
}

// CaptureResult reports the outcome of one capture attempt.
type CaptureResult struct {
	Name     string `yaml:"name"`
	Output   string `yaml:"output,omitempty"`
	Group    string `yaml:"group,omitempty"`
	Failed   bool   `yaml:"failed,omitempty"`
	Reason   string `yaml:"reason,omitempty"`
	Blank    bool   `yaml:"blank,omitempty"`
	Duration int64  `yaml:"duration_ms,omitempty"`
}

// RunManifest summarizes a capture run: every result, plus the subset
// that failed, so partial runs remain inspectable.
type RunManifest struct {
	Results  []CaptureResult `yaml:"results"`
	Failures []CaptureResult `yaml:"failures,omitempty"`
}
