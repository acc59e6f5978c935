// Package anchor assigns stable block identifiers to note lines.
//
// An anchor is a trailing " ^<id>" token on a line. Once a line carries an
// anchor it is never regenerated: EnsureAnchor called twice on the same
// content returns the same ID and leaves the document untouched.
package anchor

import (
	"crypto/rand"
	"regexp"
	"strings"
	"time"

	"github.com/starford/sowilo/internal/locator"
)

// ID generation modes.
const (
	ModeRandom = "random"
	ModeTime   = "time"
)

const (
	// DefaultLength is the random-mode ID length. Valid lengths are 6-9.
	DefaultLength = 6
	minLength     = 6
	maxLength     = 9

	// DefaultTimeLayout is the time-mode layout (sortable, second precision).
	DefaultTimeLayout = "20060102150405"

	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// anchorRe matches an existing trailing block anchor: a space, a caret,
// then one or more alphanumerics/hyphens at the very end of the line. The
// space is part of the grammar; a caret inside a word (E=mc^2) is content,
// not an anchor. The indexer's extraction uses the same token shape.
var anchorRe = regexp.MustCompile(` \^([A-Za-z0-9-]+)$`)

// Options configures anchor generation.
type Options struct {
	Mode       string // ModeRandom or ModeTime
	Length     int    // random-mode ID length, clamped to 6-9
	TimeLayout string // time-mode Go layout

	// OpenTaskAppendText, when non-empty, is appended to open-task lines
	// before the anchor token (skipped if the line already contains it).
	OpenTaskAppendText string

	// Now overrides the clock in time mode. Nil means time.Now.
	Now func() time.Time
}

// Manager generates and attaches block anchors.
type Manager struct {
	opts Options
}

// NewManager creates a Manager. Zero-value options fall back to random
// six-character IDs.
func NewManager(opts Options) *Manager {
	if opts.Mode == "" {
		opts.Mode = ModeRandom
	}
	if opts.Length < minLength || opts.Length > maxLength {
		opts.Length = DefaultLength
	}
	if opts.TimeLayout == "" {
		opts.TimeLayout = DefaultTimeLayout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{opts: opts}
}

// EnsureAnchor locates fragment inside documentText and guarantees the
// matched line ends with a block anchor, returning the (possibly updated)
// document and the anchor ID.
//
// When the fragment cannot be located, the caller-supplied fallbackLine is
// used instead, provided it is in range and non-blank. If no usable line
// exists the original document and an empty ID are returned; callers must
// treat the empty ID as an aborted operation.
func (m *Manager) EnsureAnchor(documentText, fragment string, fallbackLine int) (string, string) {
	lines := strings.Split(documentText, "\n")

	idx := -1
	if pos, ok := locator.Locate(documentText, fragment); ok {
		idx = pos.Line
	} else if fallbackLine >= 0 && fallbackLine < len(lines) &&
		strings.TrimSpace(lines[fallbackLine]) != "" {
		idx = fallbackLine
	}
	if idx < 0 {
		return documentText, ""
	}

	line := lines[idx]

	// A blank line cannot carry an anchor.
	if strings.TrimSpace(line) == "" {
		return documentText, ""
	}

	// Existing anchor wins over generating a new one.
	if match := anchorRe.FindStringSubmatch(strings.TrimRight(line, " \t")); match != nil {
		return documentText, match[1]
	}

	line = strings.TrimRight(line, " \t")
	line = m.appendOpenTaskText(line)

	id := m.generateID()
	lines[idx] = line + " ^" + id
	return strings.Join(lines, "\n"), id
}

// ExistingAnchor reports the anchor ID already present at the end of line,
// or "" if none.
func ExistingAnchor(line string) string {
	if match := anchorRe.FindStringSubmatch(strings.TrimRight(line, " \t")); match != nil {
		return match[1]
	}
	return ""
}

// appendOpenTaskText adds the configured suffix to open-task lines. The
// append is idempotent: lines already containing the text pass through.
func (m *Manager) appendOpenTaskText(line string) string {
	text := m.opts.OpenTaskAppendText
	if text == "" {
		return line
	}
	if !strings.HasPrefix(strings.TrimSpace(line), locator.OpenTaskMarker) {
		return line
	}
	if strings.Contains(line, text) {
		return line
	}
	return line + " " + text
}

func (m *Manager) generateID() string {
	if m.opts.Mode == ModeTime {
		return m.opts.Now().Format(m.opts.TimeLayout)
	}
	return randomID(m.opts.Length)
}

// randomID draws n characters from the lowercase base36 alphabet.
// Collisions are not checked; at six characters the space is ~2.2e9.
func randomID(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform entropy source is broken;
		// fall back to the clock rather than returning an empty ID.
		return time.Now().Format(DefaultTimeLayout)[:n]
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(out)
}
