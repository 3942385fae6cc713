package requestlog

// Logger is the minimal interface for recording request entries.
type Logger interface {
	Log(entry *Entry)
}

// Store keeps request history for inspection through the admin API.
type Store interface {
	Logger

	// Get retrieves a log entry by ID.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all log entries.
	Clear()

	// Count returns the number of log entries.
	Count() int
}

// Filter defines criteria for filtering request logs. Zero fields match anything.
type Filter struct {
	Method string

	// Path filters by path prefix.
	Path string

	Outcome string

	StatusCode int

	// Limit is the maximum number of entries to return.
	Limit int

	// Offset is the number of entries to skip.
	Offset int
}

// Matches reports whether e satisfies every set criterion.
func (f *Filter) Matches(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.Method != "" && e.Method != f.Method {
		return false
	}
	if f.Path != "" && (len(e.Path) < len(f.Path) || e.Path[:len(f.Path)] != f.Path) {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.StatusCode != 0 && e.ResponseStatus != f.StatusCode {
		return false
	}
	return true
}
