package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"salesadmin/application/commands"
	"salesadmin/application/commands/bus"
	"salesadmin/application/queries"
	querybus "salesadmin/application/queries/bus"
	"salesadmin/pkg/errors"
)

// HierarchyHandler browses and prunes the company/category/subcategory tree
type HierarchyHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *errors.ErrorHandler
	logger     *zap.Logger
}

// NewHierarchyHandler creates a new hierarchy handler
func NewHierarchyHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *HierarchyHandler {
	return &HierarchyHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errHandler,
		logger:     logger,
	}
}

// ListLevel handles GET /hierarchy?company=&category=
func (h *HierarchyHandler) ListLevel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := resultAs[queries.ListHierarchyResult](
		h.queryBus.Ask(r.Context(), queries.ListHierarchyQuery{
			Company:  q.Get("company"),
			Category: q.Get("category"),
		}),
	)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// DeleteSubtree handles DELETE /hierarchy/{company}[/{category}[/{subcategory}]]
func (h *HierarchyHandler) DeleteSubtree(w http.ResponseWriter, r *http.Request) {
	cmd := commands.DeleteHierarchyCommand{
		Company:     pathParam(r, "company"),
		Category:    pathParam(r, "category"),
		Subcategory: pathParam(r, "subcategory"),
	}

	result, err := resultAs[commands.DeleteResult](h.commandBus.Dispatch(r.Context(), cmd))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// pathParam returns a route parameter with percent escapes decoded
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if value, err := url.PathUnescape(raw); err == nil {
		return value
	}
	return raw
}
