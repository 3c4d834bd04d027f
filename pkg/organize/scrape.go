package organize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// jsonObjectPattern grabs the outermost {...} span so prose-wrapped
// replies still yield a candidate object.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// rawResponse is the loosely-typed shape we accept from the model before
// normalization. Anything missing or malformed gets defaulted or dropped.
type rawResponse struct {
	Tasks       []rawTask         `json:"tasks"`
	Notes       []json.RawMessage `json:"notes"`
	FollowUps   []json.RawMessage `json:"followUps"`
	Suggestions []json.RawMessage `json:"suggestions"`
}

type rawTask struct {
	Title      string   `json:"title"`
	DueDateISO *string  `json:"dueDateISO"`
	Confidence *float64 `json:"confidence"`
	Category   *string  `json:"category"`
	SourceSpan *string  `json:"sourceSpan"`
}

// ParseResponse extracts and normalizes a structured Response from a
// free-text model reply. The reply may be wrapped in markdown fences,
// surrounded by prose, or missing fields; normalization is best-effort
// and only unrecoverably malformed JSON produces an error.
func ParseResponse(text string) (*Response, error) {
	candidate := stripFences(text)

	var raw rawResponse
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		// Fallback: scrape the outermost JSON object out of the text.
		match := jsonObjectPattern.FindString(candidate)
		if match == "" {
			return nil, fmt.Errorf("no JSON object in model response: %w", err)
		}
		if err := json.Unmarshal([]byte(match), &raw); err != nil {
			return nil, fmt.Errorf("parse model response: %w", err)
		}
	}

	resp := &Response{
		Tasks:       make([]Task, 0, len(raw.Tasks)),
		Notes:       stringList(raw.Notes),
		FollowUps:   stringList(raw.FollowUps),
		Suggestions: stringList(raw.Suggestions),
	}
	for _, rt := range raw.Tasks {
		if task, ok := normalizeTask(rt); ok {
			resp.Tasks = append(resp.Tasks, task)
		}
	}
	return resp, nil
}

// stripFences removes a leading ```json or ``` fence and a trailing ```
// fence, which models emit despite the JSON-only instruction.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(strings.TrimSpace(s), "```") {
		s = strings.TrimSpace(s)
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// normalizeTask applies the defensive field rules. Tasks without a title
// are unusable and reported as not ok.
func normalizeTask(rt rawTask) (Task, bool) {
	title := strings.TrimSpace(rt.Title)
	if title == "" {
		return Task{}, false
	}

	task := Task{
		Title:      title,
		Confidence: 0.8,
	}
	if rt.Confidence != nil {
		task.Confidence = clampConfidence(*rt.Confidence)
	}
	if rt.DueDateISO != nil {
		if due := strings.TrimSpace(*rt.DueDateISO); isISODate(due) {
			task.DueDateISO = due
		}
	}
	if rt.Category != nil {
		task.Category = normalizeCategory(*rt.Category)
	}
	if rt.SourceSpan != nil {
		task.SourceSpan = strings.TrimSpace(*rt.SourceSpan)
	}
	return task, true
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// normalizeCategory maps the model's category onto the fixed
// enumeration. Unknown non-empty values collapse to "other"; empty or
// "null"-ish values stay empty.
func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if c == "" || c == "null" || c == "none" {
		return ""
	}
	if isKnownCategory(c) {
		return c
	}
	return CategoryOther
}

func isISODate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// stringList coerces a loosely-typed JSON array into a non-nil string
// slice, skipping entries that are not strings.
func stringList(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
