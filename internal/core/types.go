package core

import "time"

// MaxTracks is the number of tracks a recommendation prompt asks for and the
// upper bound of any returned playlist.
const MaxTracks = 5

// ModelEndpoint identifies one callable generation target.
type ModelEndpoint struct {
	Model string `json:"model"`
	URL   string `json:"url"`
}

// Track is a single song recommendation.
type Track struct {
	Title  string `json:"title" yaml:"title"`
	Artist string `json:"artist" yaml:"artist"`
	Link   string `json:"link" yaml:"link"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// LinkSynthesized is true when Link is a search URL built locally rather
	// than a URL the model returned.
	LinkSynthesized bool `json:"link_synthesized,omitempty" yaml:"link_synthesized,omitempty"`
}

// Playlist is the ordered result of one successful request, in receipt order.
type Playlist struct {
	Tracks []Track `json:"tracks" yaml:"tracks"`
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Tracks)
}

// Status is the terminal state of one pipeline call.
type Status string

const (
	StatusSuccess     Status = "success"
	StatusInvalidMood Status = "invalid_mood"
	StatusFailed      Status = "failed"
)

// Attempt records one endpoint contact made during a dispatch.
type Attempt struct {
	Model      string `json:"model" yaml:"model"`
	URL        string `json:"url" yaml:"url"`
	StatusCode int    `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Reason     string `json:"reason" yaml:"reason"`
	Detail     string `json:"detail,omitempty" yaml:"detail,omitempty"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
}

// Succeeded reports whether the attempt produced the response that was used.
func (a Attempt) Succeeded() bool {
	return a.Reason == ReasonOK
}

// Attempt reasons.
const (
	ReasonOK          = "ok"
	ReasonRateLimited = "rate_limited"
	ReasonNotFound    = "not_found"
	ReasonBadRequest  = "bad_request"
	ReasonClientError = "client_error"
	ReasonUnavailable = "unavailable"
	ReasonTimeout     = "timeout"
	ReasonTransport   = "transport"
	ReasonAuth        = "auth"
	ReasonCanceled    = "canceled"
	ReasonUnexpected  = "unexpected_status"
)

// Outcome is the value handed back for every pipeline call.
//
// Exactly one of Playlist (success) or Err (failed) is set; an invalid mood
// classification carries neither.
type Outcome struct {
	Status      Status        `json:"status"`
	Mood        string        `json:"mood"`
	Playlist    *Playlist     `json:"playlist,omitempty"`
	Err         error         `json:"-"`
	Attempts    []Attempt     `json:"attempts,omitempty"`
	Model       string        `json:"model,omitempty"`
	RequestedAt time.Time     `json:"requested_at"`
	Duration    time.Duration `json:"duration"`
}

// ErrorMessage returns the failure message, or "" when the call did not fail.
func (o *Outcome) ErrorMessage() string {
	if o == nil || o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
