package v1alpha1

// DraftJobStatus is the lifecycle state of a draft-generation job.
type DraftJobStatus string

const (
	DraftJobStatusPending    DraftJobStatus = "pending"
	DraftJobStatusProcessing DraftJobStatus = "processing"
	DraftJobStatusReady      DraftJobStatus = "ready"
	DraftJobStatusFailed     DraftJobStatus = "failed"
)

// Coarse labels surfaced on the parent job while its draft is produced.
const (
	JobStatusDrafting = "drafting"
	JobStatusDrafted  = "drafted"
)

// JobSize buckets used by the pricing size factor.
type JobSize string

const (
	JobSizeSmall  JobSize = "small"
	JobSizeMedium JobSize = "medium"
	JobSizeLarge  JobSize = "large"
)

// PriceRange is a computed price interval. High is always >= Low.
type PriceRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// DurationRange is an estimated duration interval in days.
type DurationRange struct {
	LowDays  int `json:"lowDays"`
	HighDays int `json:"highDays"`
}

// ScopeSection is a titled group of scope lines. A line item carries either
// flat scope lines or sections, never both.
type ScopeSection struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// LineItem is one priced unit of work within a draft.
type LineItem struct {
	Trade      string         `json:"trade"`
	Scope      []string       `json:"scope,omitempty"`
	Sections   []ScopeSection `json:"sections,omitempty"`
	Price      PriceRange     `json:"price"`
	Duration   DurationRange  `json:"duration"`
	Warranty   string         `json:"warranty,omitempty"`
	Exclusions string         `json:"exclusions,omitempty"`
}

// Draft is the computed proposal payload stored on a ready draft job.
type Draft struct {
	LineItems     []LineItem `json:"lineItems"`
	Confidence    int        `json:"confidence"`
	OpenQuestions []string   `json:"openQuestions,omitempty"`
}

// DraftContext carries optional request context supplied at enqueue time and
// handed opaquely to the generator.
type DraftContext struct {
	RequestedBy string            `json:"requestedBy,omitempty"`
	Channel     string            `json:"channel,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	Extras      map[string]string `json:"extras,omitempty"`
}

func StringToDraftJobStatus(s string) DraftJobStatus {
	switch s {
	case string(DraftJobStatusProcessing):
		return DraftJobStatusProcessing
	case string(DraftJobStatusReady):
		return DraftJobStatusReady
	case string(DraftJobStatusFailed):
		return DraftJobStatusFailed
	default:
		return DraftJobStatusPending
	}
}

func StringToJobSize(s string) JobSize {
	switch s {
	case string(JobSizeSmall):
		return JobSizeSmall
	case string(JobSizeLarge):
		return JobSizeLarge
	default:
		return JobSizeMedium
	}
}
