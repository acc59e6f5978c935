// Package locator finds the line of a text fragment inside a document.
//
// Editor selections rarely byte-match the persisted file: the host may
// normalise trailing whitespace or task markers, and multi-line selections
// carry their own indentation. Locate therefore runs a cascade of matching
// passes, always preferring the least-transformed match.
package locator

import "strings"

// OpenTaskMarker is the literal prefix of an unfinished checklist item.
const OpenTaskMarker = "- [ ]"

// Position is the location of a matched fragment.
type Position struct {
	Line   int // zero-based line index
	Column int // byte offset of the match within the raw line
}

// Locate returns the position of the first line matching fragment, trying
// each pass in order. The second return value is false when no pass matches;
// that is an expected outcome, not an error.
func Locate(documentText, fragment string) (Position, bool) {
	// A blank fragment would substring-match every line; there is nothing
	// to locate.
	if strings.TrimSpace(fragment) == "" {
		return Position{}, false
	}

	lines := strings.Split(documentText, "\n")

	// Pass 1: exact substring against raw lines.
	for i, line := range lines {
		if col := strings.Index(line, fragment); col >= 0 {
			return Position{Line: i, Column: col}, true
		}
	}

	// Pass 2: trimmed fragment against raw lines.
	trimmed := strings.TrimSpace(fragment)
	if trimmed != "" && trimmed != fragment {
		for i, line := range lines {
			if col := strings.Index(line, trimmed); col >= 0 {
				return Position{Line: i, Column: col}, true
			}
		}
	}

	// Pass 3: open-task heuristic. The host editor may rewrite the task
	// marker, so match on the task text alone.
	if strings.HasPrefix(trimmed, OpenTaskMarker) {
		task := strings.TrimSpace(trimmed[len(OpenTaskMarker):])
		for i, line := range lines {
			lt := strings.TrimSpace(line)
			if !strings.HasPrefix(lt, OpenTaskMarker) {
				continue
			}
			if task == "" || strings.Contains(lt, task) {
				col := strings.Index(line, OpenTaskMarker)
				if task != "" {
					if c := strings.Index(line, task); c >= 0 {
						col = c
					}
				}
				return Position{Line: i, Column: col}, true
			}
		}
	}

	// Pass 4: multi-line fragment, match its first line exactly (trimmed).
	if idx := strings.IndexByte(fragment, '\n'); idx >= 0 {
		first := strings.TrimSpace(fragment[:idx])
		if first != "" {
			for i, line := range lines {
				if strings.TrimSpace(line) == first {
					return Position{Line: i, Column: leadingWhitespace(line)}, true
				}
			}
		}
	}

	// Pass 5: whitespace-normalized equality.
	normFrag := normalizeWhitespace(fragment)
	if normFrag != "" {
		for i, line := range lines {
			if normalizeWhitespace(line) == normFrag {
				return Position{Line: i, Column: leadingWhitespace(line)}, true
			}
		}
	}

	return Position{}, false
}

// normalizeWhitespace collapses runs of whitespace to single spaces and trims.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func leadingWhitespace(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
