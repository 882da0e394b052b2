package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"salesadmin/application/services"
	"salesadmin/domain/core/entities"
	"salesadmin/pkg/common"
	"salesadmin/pkg/errors"
)

// RecordHandler serves CRUD for one collection of admin records
type RecordHandler[T entities.Record] struct {
	records *services.RecordService[T]
	errors  *errors.ErrorHandler
	logger  *zap.Logger
}

// NewRecordHandler creates a handler for the records kept by records
func NewRecordHandler[T entities.Record](
	records *services.RecordService[T],
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *RecordHandler[T] {
	return &RecordHandler[T]{
		records: records,
		errors:  errHandler,
		logger:  logger,
	}
}

// Routes mounts list, create, get, update and delete
func (h *RecordHandler[T]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /<collection>?page=&page_size=
func (h *RecordHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.records.List(r.Context(), common.ExtractPaginationParams(r))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, page)
}

// Create handles POST /<collection>
func (h *RecordHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	record := h.records.New()
	if err := decodeJSON(w, r, record); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	created, err := h.records.Create(r.Context(), record)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, created)
}

// Get handles GET /<collection>/{id}
func (h *RecordHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.records.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, record)
}

// Update handles PUT /<collection>/{id}. Fields missing from the body keep
// their stored values.
func (h *RecordHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]interface{}
	if err := decodeJSON(w, r, &patch); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if len(patch) == 0 {
		h.errors.Handle(w, r, errors.NewValidationError("nothing to update"))
		return
	}

	updated, err := h.records.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, updated)
}

// Delete handles DELETE /<collection>/{id}
func (h *RecordHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.records.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload returns a handler that stores the multipart "file" field and lets
// attach record its URL and original name on the record
func (h *RecordHandler[T]) Upload(attach func(record T, url, filename string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			h.errors.Handle(w, r, errors.NewValidationError("invalid upload: "+err.Error()))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			h.errors.Handle(w, r, errors.NewValidationError("file is required"))
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		record, err := h.records.AttachBlob(r.Context(), chi.URLParam(r, "id"), header.Filename, file, contentType,
			func(record T, url string) error {
				return attach(record, url, header.Filename)
			},
		)
		if err != nil {
			h.errors.Handle(w, r, err)
			return
		}
		respondJSON(w, h.logger, http.StatusOK, record)
	}
}

// AppendOfferImage adds an uploaded image to an offer's carousel
func AppendOfferImage(offer *entities.Offer, url, _ string) error {
	offer.Images = append(offer.Images, url)
	return nil
}

// SetCatalogFile points a catalog at its uploaded brochure
func SetCatalogFile(catalog *entities.Catalog, url, filename string) error {
	catalog.FileURL = url
	catalog.FileName = filename
	return nil
}
