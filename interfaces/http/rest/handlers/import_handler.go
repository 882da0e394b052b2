package handlers

import (
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"salesadmin/application/commands"
	"salesadmin/application/commands/bus"
	"salesadmin/application/services"
	"salesadmin/infrastructure/spreadsheet"
	"salesadmin/pkg/errors"
)

// maxUploadSize caps spreadsheet and file uploads
const maxUploadSize = 32 << 20

// ImportRequest is the JSON form of an import: rows already parsed by the
// client
type ImportRequest struct {
	Rows  []services.RawRow `json:"rows"`
	Clear bool              `json:"clear"`
}

// ImportHandler runs bulk catalog jobs: spreadsheet import and the flat
// product migration
type ImportHandler struct {
	commandBus *bus.CommandBus
	errors     *errors.ErrorHandler
	logger     *zap.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(commandBus *bus.CommandBus, errHandler *errors.ErrorHandler, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		commandBus: commandBus,
		errors:     errHandler,
		logger:     logger,
	}
}

// ImportProducts handles POST /products/import. A multipart body carries
// the spreadsheet in "file" with optional "sheet" and "clear" fields; a
// JSON body carries the rows directly.
func (h *ImportHandler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	var (
		cmd commands.ImportProductsCommand
		err error
	)
	if isMultipart(r) {
		cmd, err = h.fromUpload(w, r)
	} else {
		var req ImportRequest
		err = decodeJSON(w, r, &req)
		cmd = commands.ImportProductsCommand{Rows: req.Rows, Clear: req.Clear, Source: "json"}
	}
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := resultAs[commands.ImportProductsResult](h.commandBus.Dispatch(r.Context(), cmd))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Catalog import finished",
		zap.String("source", cmd.Source),
		zap.Int("imported", result.Imported),
		zap.Int("cleared", result.Cleared),
	)
	respondJSON(w, h.logger, http.StatusOK, result)
}

// MigrateFlatProducts handles POST /migrations/flat-products?dry=true
func (h *ImportHandler) MigrateFlatProducts(w http.ResponseWriter, r *http.Request) {
	dry, _ := strconv.ParseBool(r.URL.Query().Get("dry"))

	result, err := resultAs[services.MigrationResult](
		h.commandBus.Dispatch(r.Context(), commands.MigrateFlatProductsCommand{DryRun: dry}),
	)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, result)
}

func (h *ImportHandler) fromUpload(w http.ResponseWriter, r *http.Request) (commands.ImportProductsCommand, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return commands.ImportProductsCommand{}, errors.NewValidationError("invalid upload: " + err.Error())
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return commands.ImportProductsCommand{}, errors.NewValidationError("file is required")
	}
	defer file.Close()

	rows, err := spreadsheet.ReadFile(file, header.Filename, r.FormValue("sheet"))
	if err != nil {
		return commands.ImportProductsCommand{}, err
	}
	clearFirst, _ := strconv.ParseBool(r.FormValue("clear"))

	return commands.ImportProductsCommand{
		Rows:   rows,
		Clear:  clearFirst,
		Source: header.Filename,
	}, nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
