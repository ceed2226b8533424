// Package ansi translates terminal styling escape sequences embedded in log
// messages into styled text runs. It is a pure transformation with no
// dependency on the rest of the pipeline; renderers decide how runs are
// ultimately drawn.
package ansi

import "strings"

// Style is the accumulated display state at a point in the text. Colors are
// hex strings ("#rrggbb") from the fixed SGR code tables, empty when the
// terminal default applies.
type Style struct {
	Foreground string
	Background string
	Bold       bool
}

// IsZero reports whether the style is the terminal default.
func (s Style) IsZero() bool {
	return s.Foreground == "" && s.Background == "" && !s.Bold
}

// Run is a span of plain text carrying one style.
type Run struct {
	Text  string
	Style Style
}

// Text is the translated form of one message string. Terminal is true when
// any escape sequence was present anywhere in the input; renderers wrap such
// text in one outer terminal-like container (dark background, padding) so
// stylized transcripts stand apart from plain log lines. Text with no
// escapes passes through as a single unstyled run with Terminal false, to
// avoid visual noise on the common case.
type Text struct {
	Runs     []Run
	Terminal bool
}

// Plain returns the text with all styling stripped.
func (t Text) Plain() string {
	var b strings.Builder
	for _, r := range t.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Standard and bright SGR palettes (VS Code terminal defaults, legible on a
// dark background).
var fgColors = map[int]string{
	30: "#000000", 31: "#cd3131", 32: "#0dbc79", 33: "#e5e510",
	34: "#2472c8", 35: "#bc3fbc", 36: "#11a8cd", 37: "#e5e5e5",
	90: "#666666", 91: "#f14c4c", 92: "#23d18b", 93: "#f5f543",
	94: "#3b8eea", 95: "#d670d6", 96: "#29b8db", 97: "#ffffff",
}

var bgColors = map[int]string{
	40: "#000000", 41: "#cd3131", 42: "#0dbc79", 43: "#e5e510",
	44: "#2472c8", 45: "#bc3fbc", 46: "#11a8cd", 47: "#e5e5e5",
	100: "#666666", 101: "#f14c4c", 102: "#23d18b", 103: "#f5f543",
	104: "#3b8eea", 105: "#d670d6", 106: "#29b8db", 107: "#ffffff",
}

const escape = '\x1b'

// Translate scans s for SGR escape sequences and returns the styled runs.
// Each sequence updates the accumulated style (reset clears it); the
// intervening plain text is emitted under the style active at that point.
// Unrecognized codes and non-SGR control sequences are consumed and ignored.
func Translate(s string) Text {
	if !strings.ContainsRune(s, escape) {
		return Text{Runs: []Run{{Text: s}}}
	}

	var (
		out     Text
		current Style
		plain   strings.Builder
	)
	out.Terminal = true

	flush := func() {
		if plain.Len() > 0 {
			out.Runs = append(out.Runs, Run{Text: plain.String(), Style: current})
			plain.Reset()
		}
	}

	for i := 0; i < len(s); {
		if s[i] != byte(escape) {
			plain.WriteByte(s[i])
			i++
			continue
		}
		// Escape without a CSI introducer: drop the lone escape byte.
		if i+1 >= len(s) || s[i+1] != '[' {
			i++
			continue
		}
		// Find the terminating byte of the CSI sequence: parameter bytes
		// (0x30-0x3f, including the private ?/>/= prefixes), then
		// intermediate bytes (0x20-0x2f), then the final byte. Sequences
		// carrying private or intermediate bytes are never SGR.
		j := i + 2
		sgr := true
		for j < len(s) && s[j] >= 0x30 && s[j] <= 0x3f {
			if s[j] != ';' && (s[j] < '0' || s[j] > '9') {
				sgr = false
			}
			j++
		}
		for j < len(s) && s[j] >= 0x20 && s[j] <= 0x2f {
			sgr = false
			j++
		}
		if j >= len(s) {
			// Truncated sequence at end of text; discard it.
			break
		}
		if sgr && s[j] == 'm' {
			flush()
			current = applyCodes(current, s[i+2:j])
		}
		// Any other terminator is a non-styling sequence; skip it.
		i = j + 1
	}
	flush()

	if len(out.Runs) == 0 {
		out.Runs = []Run{{Text: ""}}
	}
	return out
}

// applyCodes folds a parameter list ("1;32", "0", "") into the style.
func applyCodes(style Style, params string) Style {
	if params == "" {
		return Style{}
	}
	parts := strings.Split(params, ";")
	for idx := 0; idx < len(parts); idx++ {
		p := parts[idx]
		code := 0
		for k := 0; k < len(p); k++ {
			code = code*10 + int(p[k]-'0')
		}
		// Extended color forms (38;5;n / 48;5;n and the 2;r;g;b variants)
		// are outside the fixed tables; consume their arguments unstyled.
		if code == 38 || code == 48 {
			if idx+1 < len(parts) && parts[idx+1] == "5" {
				idx += 2
			} else if idx+1 < len(parts) && parts[idx+1] == "2" {
				idx += 4
			}
			continue
		}
		switch {
		case code == 0:
			style = Style{}
		case code == 1:
			style.Bold = true
		case code == 22:
			style.Bold = false
		case code == 39:
			style.Foreground = ""
		case code == 49:
			style.Background = ""
		default:
			if c, ok := fgColors[code]; ok {
				style.Foreground = c
			} else if c, ok := bgColors[code]; ok {
				style.Background = c
			}
		}
	}
	return style
}
