package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/lost-and-found/pkg/lostfound"
	"github.com/tendant/lost-and-found/pkg/lostfound/assetname"
)

const (
	// formFieldsAllowance is the body budget reserved for text fields on
	// top of the image size limit.
	formFieldsAllowance = 1 << 20

	// multipartMemory is the part of a multipart body kept in memory;
	// the rest is spooled to the OS temp dir.
	multipartMemory = 1 << 20

	uploadField = "file"
)

var errBadRequestBody = errors.New("malformed request body")

// ListItemsResponse is the body of GET /item.
type ListItemsResponse struct {
	Count int               `json:"count"`
	Data  []*lostfound.Item `json:"data"`
}

// CreateItemResponse is the body of a successful POST /item.
type CreateItemResponse struct {
	Message string          `json:"message"`
	Item    *lostfound.Item `json:"item"`
}

// DeleteItemResponse is the body of a successful DELETE /item/{id}.
type DeleteItemResponse struct {
	Message string `json:"message"`
	ItemID  string `json:"itemId"`
}

// ItemHandler handles the /item endpoints
type ItemHandler struct {
	service lostfound.Service
	metrics *Metrics
	maxBody int64
	errorResponder
}

// ItemHandlerOption configures an ItemHandler.
type ItemHandlerOption func(*ItemHandler)

// WithMaxUploadSize sets the image size limit used to bound request bodies.
func WithMaxUploadSize(limit int64) ItemHandlerOption {
	return func(h *ItemHandler) {
		h.maxBody = limit + formFieldsAllowance
	}
}

// WithMetrics records item counters on m.
func WithMetrics(m *Metrics) ItemHandlerOption {
	return func(h *ItemHandler) {
		h.metrics = m
	}
}

// WithErrorDetail includes internal error text in 500 responses.
func WithErrorDetail(expose bool) ItemHandlerOption {
	return func(h *ItemHandler) {
		h.exposeErrors = expose
	}
}

// NewItemHandler creates a new item handler
func NewItemHandler(service lostfound.Service, opts ...ItemHandlerOption) *ItemHandler {
	h := &ItemHandler{
		service: service,
		maxBody: assetname.DefaultMaxSize + formFieldsAllowance,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the routes for items
func (h *ItemHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListItems)
	r.Post("/", h.CreateItem)
	r.Get("/{id}", h.GetItem)
	r.Delete("/{id}", h.DeleteItem)

	return r
}

// ListItems returns every item, newest first
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.respond(w, r, err, "Error fetching items")
		return
	}

	render.JSON(w, r, ListItemsResponse{Count: len(items), Data: items})
}

// CreateItem creates an item from a multipart, urlencoded or JSON body
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	req, cleanup, err := decodeCreateRequest(r)
	defer cleanup()
	if err != nil {
		h.metrics.rejected(err)
		h.respond(w, r, err, "Error creating item")
		return
	}

	// The body is fully read by now; a client hanging up must not abort
	// the write halfway through.
	item, err := h.service.CreateItem(context.WithoutCancel(r.Context()), req)
	if err != nil {
		h.metrics.rejected(err)
		h.respond(w, r, err, "Error creating item")
		return
	}
	h.metrics.created(item)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, CreateItemResponse{Message: "Item created successfully", Item: item})
}

// GetItem returns a single item
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respond(w, r, err, "Error fetching item")
		return
	}

	render.JSON(w, r, item)
}

// DeleteItem removes an item and its image
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteItem(context.WithoutCancel(r.Context()), id); err != nil {
		h.respond(w, r, err, "Error deleting item")
		return
	}
	h.metrics.deleted()

	render.JSON(w, r, DeleteItemResponse{Message: "Item deleted successfully", ItemID: id})
}

// decodeCreateRequest reads the item fields and the optional upload. The
// returned cleanup func is always safe to call.
func decodeCreateRequest(r *http.Request) (lostfound.CreateItemRequest, func(), error) {
	var req lostfound.CreateItemRequest
	noop := func() {}

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return req, noop, bodyError(err)
		}
		cleanup := func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				slog.Warn("Failed to remove multipart temp files", "error", err)
			}
		}
		req.Fields = formFields(r)

		file, header, err := r.FormFile(uploadField)
		switch {
		case errors.Is(err, http.ErrMissingFile):
			return req, cleanup, nil
		case err != nil:
			return req, cleanup, bodyError(err)
		}
		req.Upload = &lostfound.Upload{Filename: header.Filename, Reader: file}
		return req, func() { closeFile(file); cleanup() }, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, noop, bodyError(err)
		}
		req.Fields = formFields(r)
		return req, noop, nil

	case "application/json":
		fields, err := jsonFields(r.Body)
		if err != nil {
			return req, noop, bodyError(err)
		}
		req.Fields = fields
		return req, noop, nil
	}

	// Anything else carries no fields; validation reports all of them.
	return req, noop, nil
}

func formFields(r *http.Request) lostfound.ItemFields {
	return lostfound.ItemFields{
		Name:        r.PostFormValue("name"),
		Email:       r.PostFormValue("email"),
		PhoneNo:     r.PostFormValue("phoneno"),
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
	}
}

// jsonFields decodes a JSON object into item fields. Numbers and booleans
// are kept as their literal text; objects and arrays are rejected.
func jsonFields(body io.Reader) (lostfound.ItemFields, error) {
	var raw map[string]any
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return lostfound.ItemFields{}, err
	}

	var fieldErr error
	text := func(key string) string {
		switch v := raw[key].(type) {
		case nil:
			return ""
		case string:
			return v
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		default:
			fieldErr = fmt.Errorf("field %q must be a string", key)
			return ""
		}
	}

	fields := lostfound.ItemFields{
		Name:        text("name"),
		Email:       text("email"),
		PhoneNo:     text("phoneno"),
		Title:       text("title"),
		Description: text("description"),
	}
	return fields, fieldErr
}

func bodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return lostfound.ErrAssetTooLarge
	}
	return fmt.Errorf("%w: %v", errBadRequestBody, err)
}

func closeFile(f multipart.File) {
	if err := f.Close(); err != nil {
		slog.Warn("Failed to close upload", "error", err)
	}
}
