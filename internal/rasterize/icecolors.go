package rasterize

import "bytes"

// rewriteIceColors translates blink-attribute backgrounds to bright
// backgrounds. Classic ANSI art authored for iCE-color displays uses
// SGR 5 (blink) plus a 40-47 background to request the bright variant;
// terminals without iCE colors blink instead. The rewriter tracks
// blink state across sequences, drops the blink parameter, and bumps
// backgrounds seen while blink is active to the 100-107 range.
func rewriteIceColors(payload []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(payload))

	blink := false
	i := 0
	for i < len(payload) {
		// Only CSI ... 'm' sequences are rewritten.
		if payload[i] != 0x1b || i+1 >= len(payload) || payload[i+1] != '[' {
			out.WriteByte(payload[i])
			i++
			continue
		}
		end := i + 2
		for end < len(payload) && !isCSIFinal(payload[end]) {
			end++
		}
		if end >= len(payload) || payload[end] != 'm' {
			// Unterminated or non-SGR sequence: pass through untouched.
			out.Write(payload[i:min(end+1, len(payload))])
			i = end + 1
			continue
		}

		params := parseSGRParams(payload[i+2 : end])
		rewritten := make([]int, 0, len(params))
		for _, p := range params {
			switch {
			case p == 5:
				blink = true
				// Dropped: the bright background replaces blinking.
			case p == 0:
				blink = false
				rewritten = append(rewritten, p)
			case p == 25:
				blink = false
				rewritten = append(rewritten, p)
			case blink && p >= 40 && p <= 47:
				rewritten = append(rewritten, p+60)
			default:
				rewritten = append(rewritten, p)
			}
		}
		writeSGR(&out, rewritten)
		i = end + 1
	}
	return out.Bytes()
}

func isCSIFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}

// parseSGRParams splits a raw SGR parameter string into integers.
// An empty parameter list means reset (a single 0).
func parseSGRParams(raw []byte) []int {
	if len(raw) == 0 {
		return []int{0}
	}
	params := make([]int, 0, 4)
	val := 0
	seen := false
	for _, b := range raw {
		switch {
		case b >= '0' && b <= '9':
			val = val*10 + int(b-'0')
			seen = true
		case b == ';':
			if !seen {
				val = 0
			}
			params = append(params, val)
			val = 0
			seen = false
		default:
			// Sub-parameters and private markers are not used by the
			// art this renders; skip them.
		}
	}
	if seen {
		params = append(params, val)
	} else if len(params) > 0 {
		params = append(params, 0)
	}
	if len(params) == 0 {
		params = []int{0}
	}
	return params
}

func writeSGR(out *bytes.Buffer, params []int) {
	out.WriteString("\x1b[")
	for i, p := range params {
		if i > 0 {
			out.WriteByte(';')
		}
		writeInt(out, p)
	}
	out.WriteByte('m')
}

func writeInt(out *bytes.Buffer, v int) {
	if v >= 10 {
		writeInt(out, v/10)
	}
	out.WriteByte(byte('0' + v%10))
}
