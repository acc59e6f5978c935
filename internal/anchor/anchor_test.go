package anchor

import (
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 8, 8, 7, 6, 0, time.UTC)
}

func TestEnsureAnchor_AppendsToLocatedLine(t *testing.T) {
	m := NewManager(Options{})
	doc := "# Title\n\nsome line of text\nother line\n"

	updated, id := m.EnsureAnchor(doc, "some line of text", -1)
	if id == "" {
		t.Fatal("expected anchor ID")
	}
	lines := strings.Split(updated, "\n")
	if lines[2] != "some line of text ^"+id {
		t.Errorf("line = %q", lines[2])
	}
	// All other lines byte-identical.
	orig := strings.Split(doc, "\n")
	for i := range orig {
		if i == 2 {
			continue
		}
		if lines[i] != orig[i] {
			t.Errorf("line %d mutated: %q != %q", i, lines[i], orig[i])
		}
	}
}

func TestEnsureAnchor_Idempotent(t *testing.T) {
	m := NewManager(Options{})
	doc := "alpha\ntarget content\nomega\n"

	first, id1 := m.EnsureAnchor(doc, "target content", -1)
	second, id2 := m.EnsureAnchor(first, "target content", -1)

	if id1 == "" || id1 != id2 {
		t.Errorf("ids = %q, %q; want equal and non-empty", id1, id2)
	}
	if second != first {
		t.Error("second call mutated the document")
	}
}

func TestEnsureAnchor_ExistingAnchorDetected(t *testing.T) {
	m := NewManager(Options{})
	doc := "line with anchor ^abc123\n"

	updated, id := m.EnsureAnchor(doc, "line with anchor", -1)
	if id != "abc123" {
		t.Errorf("id = %q, want abc123", id)
	}
	if updated != doc {
		t.Error("document should be unchanged")
	}
}

func TestEnsureAnchor_FallbackLine(t *testing.T) {
	m := NewManager(Options{})
	doc := "first\nsecond\nthird"

	updated, id := m.EnsureAnchor(doc, "absent fragment", 1)
	if id == "" {
		t.Fatal("expected fallback anchor")
	}
	if !strings.HasPrefix(strings.Split(updated, "\n")[1], "second ^") {
		t.Errorf("fallback line = %q", strings.Split(updated, "\n")[1])
	}
}

func TestEnsureAnchor_TotalFailure(t *testing.T) {
	m := NewManager(Options{})
	doc := "first\n\nthird"

	// Fallback points at a blank line.
	updated, id := m.EnsureAnchor(doc, "absent fragment", 1)
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
	if updated != doc {
		t.Error("document should be unchanged on total failure")
	}

	// Fallback out of range.
	if _, id := m.EnsureAnchor(doc, "absent", 99); id != "" {
		t.Errorf("id = %q, want empty for out-of-range fallback", id)
	}
}

func TestEnsureAnchor_BlankFragment(t *testing.T) {
	m := NewManager(Options{})
	doc := "\n# Title\nbody"

	updated, id := m.EnsureAnchor(doc, "", -1)
	if id != "" {
		t.Errorf("id = %q, want empty for blank fragment", id)
	}
	if updated != doc {
		t.Errorf("document mutated: %q", updated)
	}

	// A blank fallback line is equally unusable.
	if _, id := m.EnsureAnchor(doc, "   ", 0); id != "" {
		t.Errorf("id = %q, want empty for blank fallback line", id)
	}
}

func TestEnsureAnchor_CaretInsideWordIsContent(t *testing.T) {
	m := NewManager(Options{})
	doc := "E=mc^2\n"

	updated, id := m.EnsureAnchor(doc, "E=mc^2", -1)
	if id == "2" || id == "" {
		t.Fatalf("id = %q, want a freshly generated anchor", id)
	}
	if !strings.HasPrefix(updated, "E=mc^2 ^"+id) {
		t.Errorf("line = %q", strings.Split(updated, "\n")[0])
	}
}

func TestEnsureAnchor_TimeMode(t *testing.T) {
	m := NewManager(Options{Mode: ModeTime, Now: fixedClock})
	doc := "dated line\n"

	_, id := m.EnsureAnchor(doc, "dated line", -1)
	if id != "20250308080706" {
		t.Errorf("id = %q, want 20250308080706", id)
	}
}

func TestEnsureAnchor_TimeModeCustomLayout(t *testing.T) {
	m := NewManager(Options{Mode: ModeTime, TimeLayout: "2006-01-02T1504", Now: fixedClock})
	_, id := m.EnsureAnchor("a line\n", "a line", -1)
	if id != "2025-03-08T0807" {
		t.Errorf("id = %q", id)
	}
}

func TestEnsureAnchor_OpenTaskAppendText(t *testing.T) {
	m := NewManager(Options{OpenTaskAppendText: "#sent"})
	doc := "- [ ] Task\n"

	updated, id := m.EnsureAnchor(doc, "- [ ] Task", -1)
	line := strings.Split(updated, "\n")[0]
	if line != "- [ ] Task #sent ^"+id {
		t.Errorf("line = %q", line)
	}
}

func TestAppendOpenTaskText_Idempotent(t *testing.T) {
	m := NewManager(Options{OpenTaskAppendText: "#sent"})
	once := m.appendOpenTaskText("- [ ] Task")
	twice := m.appendOpenTaskText(once)
	if twice != "- [ ] Task #sent" {
		t.Errorf("line = %q, want single suffix", twice)
	}
}

func TestAppendOpenTaskText_SkipsNonTasks(t *testing.T) {
	m := NewManager(Options{OpenTaskAppendText: "#sent"})
	if got := m.appendOpenTaskText("plain line"); got != "plain line" {
		t.Errorf("line = %q", got)
	}
}

func TestRandomID_LengthAndAlphabet(t *testing.T) {
	for _, n := range []int{6, 9} {
		id := randomID(n)
		if len(id) != n {
			t.Errorf("len = %d, want %d", len(id), n)
		}
		for _, c := range id {
			if !strings.ContainsRune(idAlphabet, c) {
				t.Errorf("unexpected character %q in %q", c, id)
			}
		}
	}
}

func TestNewManager_ClampsLength(t *testing.T) {
	m := NewManager(Options{Length: 42})
	if m.opts.Length != DefaultLength {
		t.Errorf("length = %d, want %d", m.opts.Length, DefaultLength)
	}
}

func TestExistingAnchor(t *testing.T) {
	if got := ExistingAnchor("text ^blk-01"); got != "blk-01" {
		t.Errorf("got %q", got)
	}
	if got := ExistingAnchor("no anchor here"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if got := ExistingAnchor("caret ^ alone"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	// No separating space means the caret is part of the content.
	if got := ExistingAnchor("E=mc^2"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
