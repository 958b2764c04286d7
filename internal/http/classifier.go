package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/pantrykit/pantry-ui-api/internal/errors"
)

// BodyKind selects the response body shape for a classified error.
type BodyKind int

const (
	BodyJSON BodyKind = iota
	BodyHTML
)

// ClassifiedResponse is the classifier's verdict for one error: the status
// code, the body shape, and the payload. It is derived per request and
// never stored; the status code is a deterministic function of the error's
// structural content.
type ClassifiedResponse struct {
	StatusCode int
	BodyKind   BodyKind
	// JSONBody is the payload when BodyKind is BodyJSON.
	JSONBody any
	// View is the template input when BodyKind is BodyHTML.
	View ErrorView
}

// Classify maps an error raised while handling r to a response. It is pure
// given the request's observable fields: no logging, no writes. Database
// driver errors are normalized into the application taxonomy first, so a
// raw pgconn error classifies the same way as a hand-built validation
// failure with the same meaning.
func Classify(r *http.Request, err error) ClassifiedResponse {
	err = apperrors.MapDBError(err)

	switch {
	case apperrors.IsMalformedInput(err):
		// A body that can't be parsed can't be trusted to want HTML either.
		return ClassifiedResponse{
			StatusCode: http.StatusBadRequest,
			BodyKind:   BodyJSON,
			JSONBody:   map[string]string{"error": "Invalid JSON body"},
		}

	case isValidationFailure(err):
		return classifyValidation(r, err)

	case apperrors.IsNotFound(err):
		return classifyNotFound(r)

	case apperrors.IsConflict(err):
		return classifyConflict(r, err)

	default:
		return classifyUnclassified(r)
	}
}

// isValidationFailure treats both ValidationError values and
// validation-coded AppErrors as the ValidationFailed state.
func isValidationFailure(err error) bool {
	return apperrors.IsValidation(err)
}

// classifyValidation resolves the 400-vs-422 tie-break and the body shape.
// A message signaling a missing required field is a request-shape problem
// (400); a present-but-invalid field is a semantic problem (422).
func classifyValidation(r *http.Request, err error) ClassifiedResponse {
	ve, ok := apperrors.AsValidation(err)
	if !ok {
		// Validation-coded AppError carries a single message.
		ve = apperrors.NewValidationError()
		if msg := errMessage(err); msg != "" {
			ve = apperrors.NewValidationError(msg)
		}
	}
	details := ve.Details()

	status := http.StatusUnprocessableEntity
	if ve.HasRequiredViolation() {
		status = http.StatusBadRequest
	}

	if PrefersStructuredData(r) {
		return ClassifiedResponse{
			StatusCode: status,
			BodyKind:   BodyJSON,
			JSONBody: map[string]any{
				"error":   "Validation failed",
				"details": details,
			},
		}
	}

	view := newErrorView(r, strings.Join(details, ". "))
	return ClassifiedResponse{
		StatusCode: status,
		BodyKind:   BodyHTML,
		View:       view,
	}
}

// classifyNotFound produces the 404 shape for unmatched routes.
func classifyNotFound(r *http.Request) ClassifiedResponse {
	if PrefersStructuredData(r) {
		return ClassifiedResponse{
			StatusCode: http.StatusNotFound,
			BodyKind:   BodyJSON,
			JSONBody: map[string]string{
				"error": "Not Found",
				"path":  r.URL.Path,
			},
		}
	}

	view := newErrorView(r, "The page you requested could not be found.")
	view.RequestedPath = r.URL.Path
	return ClassifiedResponse{
		StatusCode: http.StatusNotFound,
		BodyKind:   BodyHTML,
		View:       view,
	}
}

// classifyConflict shapes duplicate/in-use errors surfaced by the data layer.
func classifyConflict(r *http.Request, err error) ClassifiedResponse {
	msg := errMessage(err)
	if PrefersStructuredData(r) {
		return ClassifiedResponse{
			StatusCode: http.StatusConflict,
			BodyKind:   BodyJSON,
			JSONBody:   map[string]string{"error": msg},
		}
	}
	return ClassifiedResponse{
		StatusCode: http.StatusConflict,
		BodyKind:   BodyHTML,
		View:       newErrorView(r, msg),
	}
}

// classifyUnclassified produces the opaque 500 shape. Detail never reaches
// the client; RenderError logs it server-side.
func classifyUnclassified(r *http.Request) ClassifiedResponse {
	// API callers must get a machine-readable shape even when they send an
	// HTML Accept header by mistake.
	if IsAPIRequest(r) || PrefersStructuredData(r) {
		return ClassifiedResponse{
			StatusCode: http.StatusInternalServerError,
			BodyKind:   BodyJSON,
			JSONBody:   map[string]string{"error": "Server error"},
		}
	}

	return ClassifiedResponse{
		StatusCode: http.StatusInternalServerError,
		BodyKind:   BodyHTML,
		View:       newErrorView(r, "Something went wrong. Please try again."),
	}
}

// errMessage returns the error's message, shielding against nil.
func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// RenderError classifies err and writes the response. Unclassified errors
// are logged in full here; the client only ever sees the generic shape.
func RenderError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	resp := Classify(r, err)
	if resp.StatusCode == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "unclassified error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
		)
	}

	switch resp.BodyKind {
	case BodyHTML:
		writeErrorView(w, r, resp.StatusCode, resp.View, logger)
	default:
		WriteJSON(w, resp.StatusCode, resp.JSONBody)
	}
}
