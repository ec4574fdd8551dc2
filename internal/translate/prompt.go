package translate

import (
	"fmt"
	"strings"
)

// SkipMarker is the literal a model emits to exclude a subtitle entirely.
const SkipMarker = "[SKIP THIS SUBTITLE]"

// BuildPrompt composes the translation request for one segment: the adjusted
// transcript carries the dialogue, the reference slice anchors ids and
// timings, and the target language names the second output language.
func BuildPrompt(transcript, referenceSRT, targetLang string) string {
	var b strings.Builder

	tag := strings.ToLower(targetLang)

	fmt.Fprintf(&b, `You are improving and translating subtitles. Below is a transcript of a
video segment with absolute timestamps, followed by the existing subtitles
for the same time range.

For EVERY subtitle in the reference, produce one block in exactly this form:

<subline>
  <original_number>ID from the reference subtitle</original_number>
  <original_line>the reference subtitle text</original_line>
  <original_timing>the reference timing line</original_timing>
  <better_english_translation>improved English subtitle based on the transcript</better_english_translation>
  <%s_translation>the %s translation of the same line</%s_translation>
</subline>

Rules:
- Keep the reference numbering; never invent or renumber ids.
- Use the transcript to fix mishearings, but keep each line a subtitle:
  short, natural, and in sync with its timing.
- If a subtitle should not exist at all (credits, noise), output the exact
  text %s as both translations.
- Wrap all blocks in a single `+"```xml"+` fenced code block.

TRANSCRIPT:
%s

REFERENCE SUBTITLES:
%s
`, tag, targetLang, tag, SkipMarker, transcript, referenceSRT)

	return b.String()
}
