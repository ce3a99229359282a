package encodings

import "github.com/unilibs/uniwidth"

// Measure returns the display geometry of decoded banner text: the
// width of its widest line in terminal cells and its line count.
// Escape sequences and control bytes are excluded from measurement.
// Used to size capture sessions for banners taller or wider than the
// group defaults.
func Measure(text string) (cols, rows int) {
	lines := stripControls(text)
	for _, line := range lines {
		if w := uniwidth.StringWidth(line); w > cols {
			cols = w
		}
	}
	return cols, len(lines)
}
