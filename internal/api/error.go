package api

// ErrorResponse is the JSON shape of every error returned by the HTTP
// API. Suggestion is only set where the caller can plausibly fix the
// problem themselves.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}
