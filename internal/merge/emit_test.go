package merge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hrishioa/ipgu/internal/issues"
)

func bilingualCue(id string, start, end time.Duration, english, korean string) FinalCue {
	c := FinalCue{
		OriginalID:   id,
		Start:        start,
		End:          end,
		Translations: map[string]*string{},
	}
	if english != "" {
		c.Translations["english"] = &english
	}
	if korean != "" {
		c.Translations["korean"] = &korean
	}
	return c
}

func TestEmitBilingualLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	log := issues.NewCollector()

	n, err := Emit(path, []FinalCue{
		bilingualCue("1", time.Second, 3*time.Second, "Hello", "안녕"),
	}, EmitOptions{
		TargetLang:   "korean",
		ColorEnglish: "#FFFFFF",
		ColorTarget:  "#FFD700",
	}, log)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("emitted %d cues", n)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `<font color="#FFFFFF">Hello</font>`) {
		t.Errorf("missing english color span:\n%s", content)
	}
	if !strings.Contains(content, `<font color="#FFD700">안녕</font>`) {
		t.Errorf("missing target color span:\n%s", content)
	}
}

func TestEmitFallbackMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	log := issues.NewCollector()

	c := bilingualCue("5", time.Second, 2*time.Second, "from reference", "한국어")
	c.IsFallback = true

	if _, err := Emit(path, []FinalCue{c}, EmitOptions{
		TargetLang:    "korean",
		MarkFallbacks: true,
	}, log); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), DefaultFallbackMarker+"from reference") {
		t.Errorf("fallback marker missing:\n%s", data)
	}
}

func TestEmitOutputOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	log := issues.NewCollector()

	n, err := Emit(path, []FinalCue{
		bilingualCue("1", time.Second, 2*time.Second, "dropped", ""),
		bilingualCue("2", 10*time.Second, 12*time.Second, "kept", ""),
	}, EmitOptions{
		TargetLang:   "korean",
		OutputOffset: -5 * time.Second,
	}, log)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if n != 1 {
		t.Errorf("emitted %d cues, want 1 (negative start dropped)", n)
	}
	if log.CountBySeverity(issues.SeverityWarning) == 0 {
		t.Errorf("expected a drop warning")
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "00:00:05,000") {
		t.Errorf("offset not applied:\n%s", data)
	}
}

func TestEmitOrdersByStartTime(t *testing.T) {
	// Response timings can put a higher id earlier on the timeline; the file
	// must still number cues in start order.
	path := filepath.Join(t.TempDir(), "out.srt")
	log := issues.NewCollector()

	n, err := Emit(path, []FinalCue{
		bilingualCue("41", 20*time.Second, 22*time.Second, "later", ""),
		bilingualCue("42", 10*time.Second, 12*time.Second, "earlier", ""),
	}, EmitOptions{TargetLang: "korean"}, log)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
	if n != 2 {
		t.Fatalf("emitted %d cues", n)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if strings.Index(content, "earlier") > strings.Index(content, "later") {
		t.Errorf("cues not ordered by start time:\n%s", content)
	}
	if !strings.HasPrefix(strings.TrimSpace(content), "1\n00:00:10,000") {
		t.Errorf("first cue should be the earlier one:\n%s", content)
	}
}

func TestEmitDenseFinalIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")
	log := issues.NewCollector()

	_, err := Emit(path, []FinalCue{
		bilingualCue("40", time.Second, 2*time.Second, "a", ""),
		bilingualCue("41", 3*time.Second, 4*time.Second, "", ""), // dropped: empty
		bilingualCue("42", 5*time.Second, 6*time.Second, "c", ""),
	}, EmitOptions{TargetLang: "korean"}, log)
	if err != nil {
		t.Fatalf("Emit failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "1" {
		t.Errorf("first id = %q", lines[0])
	}
	if !strings.Contains(string(data), "\n2\n") {
		t.Errorf("expected dense renumbering:\n%s", data)
	}
	if strings.Contains(string(data), "\n3\n") {
		t.Errorf("dropped cue should not consume an id:\n%s", data)
	}
}
