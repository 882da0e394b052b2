package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"salesadmin/application/commands/bus"
	cmdhandlers "salesadmin/application/commands/handlers"
	querybus "salesadmin/application/queries/bus"
	queryhandlers "salesadmin/application/queries/handlers"
	"salesadmin/application/services"
	"salesadmin/domain/config"
	"salesadmin/domain/core/entities"
	"salesadmin/domain/core/validators"
	"salesadmin/domain/core/valueobjects"
	"salesadmin/infrastructure/persistence/memory"
	blobmemory "salesadmin/infrastructure/storage/memory"
	"salesadmin/pkg/errors"
)

type fixture struct {
	store  *memory.DocumentStore
	blobs  *blobmemory.BlobStore
	router chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	layout := valueobjects.DefaultCatalogLayout()
	cfg := config.DefaultDomainConfig()
	store := memory.NewDocumentStore()
	blobs := blobmemory.NewBlobStore()

	ancestors := services.NewAncestorUpserter(store, layout)
	reader := services.NewCatalogReader(store, layout, nil, cfg, logger)
	products := services.NewProductService(store, layout, ancestors, reader, validators.NewProductValidator(cfg), 450, logger)
	importer := services.NewBulkImporter(store, layout, ancestors, 450, cfg, nil, logger)
	deleter := services.NewSubtreeDeleter(store, layout, 450, logger)
	migrator := services.NewFlatMigrator(store, layout, ancestors, cfg, nil, logger)

	commandBus := bus.NewCommandBus()
	require.NoError(t, cmdhandlers.NewProductCommandHandlers(products, nil, logger).Register(commandBus))
	require.NoError(t, cmdhandlers.NewCatalogCommandHandlers(importer, deleter, migrator, products, reader, layout, nil, memory.NewLocker(), nil, logger).Register(commandBus))
	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryhandlers.NewCatalogQueryHandlers(reader, products, logger).Register(queryBus))

	errHandler := errors.NewErrorHandler(logger, false)
	productHandler := NewProductHandler(commandBus, queryBus, errHandler, logger)
	hierarchyHandler := NewHierarchyHandler(commandBus, queryBus, errHandler, logger)
	importHandler := NewImportHandler(commandBus, errHandler, logger)
	offers := NewRecordHandler(
		services.NewRecordService("offers", store, layout, blobs, func() *entities.Offer { return &entities.Offer{} }, logger),
		errHandler, logger,
	)
	catalogs := NewRecordHandler(
		services.NewRecordService("catalogs", store, layout, blobs, func() *entities.Catalog { return &entities.Catalog{} }, logger),
		errHandler, logger,
	)

	r := chi.NewRouter()
	r.Get("/products", productHandler.ListProducts)
	r.Post("/products", productHandler.CreateProduct)
	r.Delete("/products", productHandler.DeleteAllProducts)
	r.Get("/products/item", productHandler.GetProduct)
	r.Put("/products/item", productHandler.UpdateProduct)
	r.Delete("/products/item", productHandler.DeleteProduct)
	r.Post("/products/import", importHandler.ImportProducts)
	r.Post("/migrations/flat-products", importHandler.MigrateFlatProducts)
	r.Get("/hierarchy", hierarchyHandler.ListLevel)
	r.Delete("/hierarchy/{company}", hierarchyHandler.DeleteSubtree)
	r.Delete("/hierarchy/{company}/{category}", hierarchyHandler.DeleteSubtree)
	r.Route("/offers", func(r chi.Router) {
		offers.Routes(r)
		r.Post("/{id}/images", offers.Upload(AppendOfferImage))
	})
	r.Route("/catalogs", func(r chi.Router) {
		catalogs.Routes(r)
		r.Post("/{id}/file", catalogs.Upload(SetCatalogFile))
	})

	return &fixture{store: store, blobs: blobs, router: r}
}

func (f *fixture) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) upload(t *testing.T, target, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func oled() map[string]interface{} {
	return map[string]interface{}{
		"name": "C3", "company": "LG", "category": "TV", "subcategory": "OLED",
		"price": 1000, "minPrice": 800, "incentive": 50,
	}
}

func TestProducts_CreateGetAndList(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	created := f.do(t, http.MethodPost, "/products", oled())

	// Assert
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	product := decode[entities.Product](t, created)
	assert.Equal(t, float64(20), product.Discount)
	assert.NotEmpty(t, product.Path)

	got := f.do(t, http.MethodGet, "/products/item?id="+product.ID, nil)
	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, product.Path, decode[entities.Product](t, got).Path)

	list := f.do(t, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, list.Code)
	result := decode[map[string]interface{}](t, list)
	assert.Equal(t, float64(1), result["count"])
}

func TestProducts_CreateRejectsInvalidDraft(t *testing.T) {
	f := newFixture(t)
	body := oled()
	delete(body, "company")

	rec := f.do(t, http.MethodPost, "/products", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.store.Len())
}

func TestProducts_MalformedBody(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[errors.ErrorResponse](t, rec)
	assert.Equal(t, string(errors.ErrorTypeValidation), resp.Type)
}

func TestProducts_UpdateMovesProduct(t *testing.T) {
	// Arrange
	f := newFixture(t)
	product := decode[entities.Product](t, f.do(t, http.MethodPost, "/products", oled()))

	// Act
	rec := f.do(t, http.MethodPut, "/products/item?path="+url.QueryEscape(product.Path), map[string]interface{}{"subcategory": "QLED"})

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	moved := decode[entities.Product](t, rec)
	assert.Equal(t, product.ID, moved.ID)
	assert.Equal(t, "QLED", moved.Subcategory)
	assert.NotEqual(t, product.Path, moved.Path)

	old := f.do(t, http.MethodGet, "/products/item?path="+url.QueryEscape(product.Path), nil)
	assert.Equal(t, http.StatusNotFound, old.Code)
}

func TestProducts_RefMustBeExactlyOne(t *testing.T) {
	f := newFixture(t)

	neither := f.do(t, http.MethodGet, "/products/item", nil)
	both := f.do(t, http.MethodGet, "/products/item?id=a&path=b", nil)

	assert.Equal(t, http.StatusBadRequest, neither.Code)
	assert.Equal(t, http.StatusBadRequest, both.Code)
}

func TestProducts_DeleteOneAndAll(t *testing.T) {
	// Arrange
	f := newFixture(t)
	first := decode[entities.Product](t, f.do(t, http.MethodPost, "/products", oled()))
	f.do(t, http.MethodPost, "/products", oled())
	f.do(t, http.MethodPost, "/products", oled())

	// Act
	one := f.do(t, http.MethodDelete, "/products/item?id="+first.ID, nil)
	all := f.do(t, http.MethodDelete, "/products", nil)

	// Assert
	require.Equal(t, http.StatusOK, one.Code)
	assert.Equal(t, first.ID, decode[map[string]interface{}](t, one)["product"].(map[string]interface{})["id"])
	require.Equal(t, http.StatusOK, all.Code)
	assert.Equal(t, float64(2), decode[map[string]interface{}](t, all)["deleted"])
	assert.Equal(t, 3, f.store.Len(), "containers stay")
}

func TestHierarchy_ListAndDelete(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.do(t, http.MethodPost, "/products", oled())
	samsung := oled()
	samsung["company"] = "Samsung"
	f.do(t, http.MethodPost, "/products", samsung)

	// Act
	companies := f.do(t, http.MethodGet, "/hierarchy", nil)
	categories := f.do(t, http.MethodGet, "/hierarchy?company=LG", nil)
	deleted := f.do(t, http.MethodDelete, "/hierarchy/LG", nil)

	// Assert
	require.Equal(t, http.StatusOK, companies.Code)
	level := decode[map[string]interface{}](t, companies)
	assert.Equal(t, "company", level["level"])
	assert.Len(t, level["nodes"], 2)

	require.Equal(t, http.StatusOK, categories.Code)
	assert.Len(t, decode[map[string]interface{}](t, categories)["nodes"], 1)

	require.Equal(t, http.StatusOK, deleted.Code)
	assert.Equal(t, float64(4), decode[map[string]interface{}](t, deleted)["deleted"])
	assert.Equal(t, 4, f.store.Len())
}

func TestHierarchy_SubcategoriesNeedCompany(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/hierarchy?category=TV", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImport_JSONRows(t *testing.T) {
	// Arrange
	f := newFixture(t)
	body := map[string]interface{}{
		"rows": []map[string]interface{}{
			{"Brand": "LG", "Category": "TV", "Sub Category": "OLED", "Model": "C3", "Price": "1000", "Min Price": "900"},
			{"Brand": "LG", "Category": "TV", "Sub Category": "OLED", "Model": "G3", "Price": "2000", "Min Price": "1800"},
		},
	}

	// Act
	rec := f.do(t, http.MethodPost, "/products/import", body)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[map[string]interface{}](t, rec)
	assert.Equal(t, float64(2), result["imported"])
	assert.Equal(t, 5, f.store.Len())
}

func TestImport_Workbook(t *testing.T) {
	// Arrange
	f := newFixture(t)
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]interface{}{"Company", "Category", "Subcategory", "Name", "Price", "Min Price"}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]interface{}{"Sony", "TV", "LED", "X80", 700, 650}))
	var content bytes.Buffer
	require.NoError(t, wb.Write(&content))

	// Act
	rec := f.upload(t, "/products/import", "catalog.xlsx", content.Bytes(), map[string]string{"clear": "true"})

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[map[string]interface{}](t, rec)
	assert.Equal(t, float64(1), result["imported"])
	assert.Equal(t, float64(0), result["cleared"])
}

func TestImport_UnsupportedFile(t *testing.T) {
	f := newFixture(t)

	rec := f.upload(t, "/products/import", "catalog.pdf", []byte("%PDF"), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", decode[errors.ErrorResponse](t, rec).Code)
}

func TestMigration_DryRunWritesNothing(t *testing.T) {
	// Arrange
	f := newFixture(t)
	flat := valueobjects.DefaultCatalogLayout().ProductsRoot().Doc("legacy-1")
	require.NoError(t, f.store.Set(t.Context(), flat, map[string]interface{}{
		"name": "C3", "company": "LG", "category": "TV", "subcategory": "OLED", "price": 1000.0, "minPrice": 800.0,
	}))

	// Act
	rec := f.do(t, http.MethodPost, "/migrations/flat-products?dry=true", nil)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[map[string]interface{}](t, rec)
	assert.Equal(t, true, result["dryRun"])
	assert.Equal(t, float64(1), result["moved"])
	assert.Equal(t, 1, f.store.Len())
}

func TestRecords_CRUD(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	created := f.do(t, http.MethodPost, "/offers", map[string]interface{}{"title": "Diwali sale", "active": true})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	offer := decode[entities.Offer](t, created)

	updated := f.do(t, http.MethodPut, "/offers/"+offer.ID, map[string]interface{}{"description": "Up to 30% off"})
	list := f.do(t, http.MethodGet, "/offers?page=1&page_size=10", nil)
	removed := f.do(t, http.MethodDelete, "/offers/"+offer.ID, nil)
	missing := f.do(t, http.MethodGet, "/offers/"+offer.ID, nil)

	// Assert
	require.Equal(t, http.StatusOK, updated.Code, updated.Body.String())
	got := decode[entities.Offer](t, updated)
	assert.Equal(t, "Diwali sale", got.Title)
	assert.Equal(t, "Up to 30% off", got.Description)

	require.Equal(t, http.StatusOK, list.Code)
	page := decode[map[string]interface{}](t, list)
	assert.Len(t, page["items"], 1)

	assert.Equal(t, http.StatusNoContent, removed.Code)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestRecords_CreateValidates(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/offers", map[string]interface{}{"description": "no title"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecords_EmptyUpdateRejected(t *testing.T) {
	f := newFixture(t)
	offer := decode[entities.Offer](t, f.do(t, http.MethodPost, "/offers", map[string]interface{}{"title": "Sale"}))

	rec := f.do(t, http.MethodPut, "/offers/"+offer.ID, map[string]interface{}{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecords_Uploads(t *testing.T) {
	// Arrange
	f := newFixture(t)
	offer := decode[entities.Offer](t, f.do(t, http.MethodPost, "/offers", map[string]interface{}{"title": "Sale"}))
	catalog := decode[entities.Catalog](t, f.do(t, http.MethodPost, "/catalogs", map[string]interface{}{"title": "TV range"}))

	// Act
	image := f.upload(t, "/offers/"+offer.ID+"/images", "banner.png", []byte("png"), nil)
	brochure := f.upload(t, "/catalogs/"+catalog.ID+"/file", "range 2024.pdf", []byte("pdf"), nil)

	// Assert
	require.Equal(t, http.StatusOK, image.Code, image.Body.String())
	withImage := decode[entities.Offer](t, image)
	require.Len(t, withImage.Images, 1)
	_, ok := f.blobs.Open(withImage.Images[0])
	assert.True(t, ok)

	require.Equal(t, http.StatusOK, brochure.Code, brochure.Body.String())
	withFile := decode[entities.Catalog](t, brochure)
	assert.Equal(t, "range 2024.pdf", withFile.FileName)
	assert.NotEmpty(t, withFile.FileURL)
}

func TestRecords_UploadRequiresFile(t *testing.T) {
	f := newFixture(t)
	offer := decode[entities.Offer](t, f.do(t, http.MethodPost, "/offers", map[string]interface{}{"title": "Sale"}))
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/offers/"+offer.ID+"/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
