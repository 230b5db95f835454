package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// MessageResponse is the body of every non-2xx response.
type MessageResponse struct {
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// errorResponder writes service errors as JSON. Internal error text is only
// included when exposeErrors is set.
type errorResponder struct {
	exposeErrors bool
}

// respond maps err to a status code and body. fallback is the message used
// for unexpected failures.
func (e errorResponder) respond(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, body := e.classify(err, fallback)
	if status >= http.StatusInternalServerError {
		slog.Error(fallback, "error", err, "path", r.URL.Path)
	}
	render.Status(r, status)
	render.JSON(w, r, body)
}

func (e errorResponder) classify(err error, fallback string) (int, MessageResponse) {
	var validationErr *lostfound.ValidationError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, MessageResponse{Message: "Missing required fields", Fields: validationErr.Fields}
	case errors.Is(err, lostfound.ErrInvalidIdentifier):
		return http.StatusBadRequest, MessageResponse{Message: "Invalid item ID"}
	case errors.Is(err, lostfound.ErrItemNotFound):
		return http.StatusNotFound, MessageResponse{Message: "Item not found"}
	case errors.Is(err, lostfound.ErrInvalidAssetType):
		return http.StatusBadRequest, MessageResponse{Message: "Only image files are allowed!"}
	case errors.Is(err, lostfound.ErrAssetTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, MessageResponse{Message: "File too large"}
	case errors.Is(err, errBadRequestBody):
		return http.StatusBadRequest, MessageResponse{Message: "Invalid request body"}
	}

	body := MessageResponse{Message: fallback}
	if e.exposeErrors {
		body.Error = err.Error()
	}
	return http.StatusInternalServerError, body
}
