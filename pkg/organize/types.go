// Package organize turns free-form "brain dump" text into structured
// tasks and notes by prompting a generative model and scraping a JSON
// object out of its free-text reply.
package organize

// Categories a task may be filed under. Values outside this set are
// collapsed to CategoryOther during normalization.
const (
	CategoryWork     = "work"
	CategoryPersonal = "personal"
	CategoryHealth   = "health"
	CategorySchool   = "school"
	CategoryOther    = "other"
)

// Task is a single actionable item extracted from the dump.
// Wire field names match the original frontend contract (camelCase).
type Task struct {
	Title      string  `json:"title"`
	DueDateISO string  `json:"dueDateISO,omitempty"` // YYYY-MM-DD
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category,omitempty"`
	SourceSpan string  `json:"sourceSpan,omitempty"` // exact text that generated this task
}

// Request is the input to Organize.
type Request struct {
	Text     string `json:"text"`
	TodayISO string `json:"todayISO"` // YYYY-MM-DD
	Timezone string `json:"timezone,omitempty"`
}

// Response is the structured result of organizing a dump.
type Response struct {
	Tasks       []Task   `json:"tasks"`
	Notes       []string `json:"notes"`
	FollowUps   []string `json:"followUps"`
	Suggestions []string `json:"suggestions"`
}

func isKnownCategory(c string) bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryHealth, CategorySchool, CategoryOther:
		return true
	default:
		return false
	}
}
