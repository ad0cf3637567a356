// internal/app/features/errors/errlog.go
package errors

import (
	"net/http"

	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ErrorLogger logs handler failures and renders a friendly error page in one
// step, so handlers stay at a single line per failure path.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: log}
}

type errorPageData struct {
	Title   string
	Message string
	BackURL string
}

// LogServerError logs err at error level and renders a 500 page with a
// user-facing message and a back link.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg, zap.Error(err), zap.String("path", r.URL.Path))
	w.WriteHeader(http.StatusInternalServerError)
	templates.Render(w, r, "error_server", errorPageData{
		Title:   "Something went wrong",
		Message: userMsg,
		BackURL: backURL,
	})
}

// LogBadRequest logs err at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Warn(logMsg, zap.Error(err), zap.String("path", r.URL.Path))
	w.WriteHeader(http.StatusBadRequest)
	templates.Render(w, r, "error_server", errorPageData{
		Title:   "Bad request",
		Message: userMsg,
		BackURL: backURL,
	})
}

// HTMXLogServerError logs err and returns a plain-text fragment suitable for
// an HTMX swap target instead of a full page.
func (e *ErrorLogger) HTMXLogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.log.Error(logMsg, zap.Error(err), zap.String("path", r.URL.Path))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`<div class="error">` + userMsg + `</div>`))
}
