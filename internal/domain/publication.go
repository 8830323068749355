package domain

import "time"

// SourceKind says where a project's publications originate.
type SourceKind string

const (
	SourceFeed   SourceKind = "feed"
	SourceNews   SourceKind = "news"
	SourceManual SourceKind = "manual"
)

// ModuleSettings configures one generation module inside a project pipeline.
type ModuleSettings struct {
	Name    string
	Enabled bool
	Options map[string]string
}

// AutopilotSettings drives the feed poller cadence for feed/news projects.
type AutopilotSettings struct {
	Query    string
	Language string
	PerDay   int
	// Daily publish window, minutes from midnight.
	WindowStart int
	WindowEnd   int
	Weekdays    []time.Weekday
	// RewritePrompt templates the title rewrite before a feed item becomes a
	// publication; empty keeps the raw feed title.
	RewritePrompt string
}

// Project is a reusable publication configuration owned by an operator.
type Project struct {
	ID        string
	Name      string
	Kind      SourceKind
	Enabled   bool
	Modules   []ModuleSettings
	Autopilot AutopilotSettings
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status enumerates the publication lifecycle.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// LogKind classifies publication log entries.
type LogKind string

const (
	LogStart   LogKind = "start"
	LogInfo    LogKind = "info"
	LogWarning LogKind = "warning"
	LogError   LogKind = "error"
	LogSuccess LogKind = "success"
)

// LogEntry is one timestamped event in a publication's append-only log.
type LogEntry struct {
	Kind    LogKind
	Message string
	Extra   map[string]string
	At      time.Time
}

// SourceMeta carries origin metadata for externally sourced publications.
type SourceMeta struct {
	URL  string
	GUID string
	// DedupKey is the normalized identifier used to reject feed duplicates.
	DedupKey string
}

// SEOFields holds platform-specific search metadata produced by modules.
type SEOFields struct {
	Title       string
	Description string
	Keywords    []string
}

// Extras is the transient bag generation modules fill during a run.
// It is never persisted; the document-store write consumes it.
type Extras struct {
	// ThumbnailData is the raw generated image; the orchestrator uploads it
	// and records the resulting reference in ThumbnailRef.
	ThumbnailData []byte
	ThumbnailRef  string
	Tags          []string
	Categories    []string
	SEO           SEOFields
	Custom        map[string]string
}

// SetCustom stores a custom field, allocating the map lazily.
func (e *Extras) SetCustom(key, value string) {
	if e.Custom == nil {
		e.Custom = map[string]string{}
	}
	e.Custom[key] = value
}

// Publication is one schedulable unit of generated content.
type Publication struct {
	ID          string
	ProjectID   string
	ParentID    string
	Title       string
	ContentType string
	Permalink   string
	Source      SourceMeta
	PublishedAt time.Time
	Status      Status
	Logs        []LogEntry

	// Working state for a single orchestrator run; not persisted.
	Sections []*Section
	Extras   Extras

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppendLog records an event on the in-memory log.
func (p *Publication) AppendLog(kind LogKind, message string, extra map[string]string) LogEntry {
	entry := LogEntry{Kind: kind, Message: message, Extra: extra, At: time.Now()}
	p.Logs = append(p.Logs, entry)
	return entry
}
