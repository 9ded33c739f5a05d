package webhook

import "net/http"

// Error messages carried in Result.Error.
const (
	ErrMsgNotConfigured    = "not configured"
	ErrMsgCategoryRequired = "category is required"
	ErrMsgTimeout          = "timeout"
)

// Result is the uniform outcome of a dispatch.
type Result struct {
	OK     bool    `json:"ok"`
	Status *int    `json:"status,omitempty"`
	Body   *string `json:"body,omitempty"`
	Error  *string `json:"error,omitempty"`
}

func failure(status int, msg string) Result {
	return Result{OK: false, Status: &status, Error: &msg}
}

func response(status int, body string) Result {
	return Result{
		OK:     status >= 200 && status < 300,
		Status: &status,
		Body:   &body,
	}
}

// StatusCode returns the recorded status, or 0 when none was set.
func (r Result) StatusCode() int {
	if r.Status == nil {
		return 0
	}
	return *r.Status
}

// ErrorMessage returns the recorded error, or "".
func (r Result) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// HTTPStatus is the status the dashboard answers with for this result.
// Upstream 4xx/5xx are passed through; 1xx/3xx become 502 since they cannot
// carry the JSON result to the browser.
func (r Result) HTTPStatus() int {
	if r.OK {
		return http.StatusOK
	}
	code := r.StatusCode()
	switch {
	case code == 0:
		return http.StatusInternalServerError
	case code >= 400 && code < 600:
		return code
	default:
		return http.StatusBadGateway
	}
}
