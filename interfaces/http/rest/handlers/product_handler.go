package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"salesadmin/application/commands"
	"salesadmin/application/commands/bus"
	"salesadmin/application/queries"
	querybus "salesadmin/application/queries/bus"
	"salesadmin/application/services"
	"salesadmin/domain/core/entities"
	"salesadmin/pkg/errors"
)

// ProductHandler handles product HTTP requests
type ProductHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *errors.ErrorHandler
	logger     *zap.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errHandler *errors.ErrorHandler,
	logger *zap.Logger,
) *ProductHandler {
	return &ProductHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errHandler,
		logger:     logger,
	}
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	legacy, _ := strconv.ParseBool(r.URL.Query().Get("legacy"))

	result, err := resultAs[queries.FetchProductsResult](
		h.queryBus.Ask(r.Context(), queries.FetchProductsQuery{IncludeLegacy: legacy}),
	)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var draft entities.ProductDraft
	if err := decodeJSON(w, r, &draft); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	product, err := resultAs[entities.Product](
		h.commandBus.Dispatch(r.Context(), commands.AddProductCommand{Draft: draft}),
	)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, product)
}

// GetProduct handles GET /products/item?path=|id=
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := resultAs[entities.Product](
		h.queryBus.Ask(r.Context(), queries.GetProductQuery{Ref: productRef(r)}),
	)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, product)
}

// UpdateProduct handles PUT /products/item?path=|id=
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch entities.ProductPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	product, err := resultAs[entities.Product](
		h.commandBus.Dispatch(r.Context(), commands.UpdateProductCommand{Ref: productRef(r), Patch: patch}),
	)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/item?path=|id=
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	result, err := resultAs[commands.DeleteProductResult](
		h.commandBus.Dispatch(r.Context(), commands.DeleteProductCommand{Ref: productRef(r)}),
	)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

// DeleteAllProducts handles DELETE /products
func (h *ProductHandler) DeleteAllProducts(w http.ResponseWriter, r *http.Request) {
	result, err := resultAs[commands.DeleteResult](
		h.commandBus.Dispatch(r.Context(), commands.DeleteAllProductsCommand{}),
	)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

func productRef(r *http.Request) services.ProductRef {
	q := r.URL.Query()
	return services.ProductRef{Path: q.Get("path"), ID: q.Get("id")}
}
