package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/catalogops/priced-catalog-service/internal/domain"
	"github.com/catalogops/priced-catalog-service/internal/repository"
	"github.com/catalogops/priced-catalog-service/internal/service"
)

type stubCatalogService struct {
	createInput *service.CreateProductInput
	createErr   error
	updateID    uint
	updateInput *service.UpdateProductInput
	updateErr   error
	deleteErr   error
	rate        float64
}

func (s *stubCatalogService) Create(ctx context.Context, input service.CreateProductInput) (*domain.Product, error) {
	s.createInput = &input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &domain.Product{ID: 1, Name: input.Name, Description: input.Description, Price: input.Price, Image: domain.DefaultImage}, nil
}

func (s *stubCatalogService) Update(ctx context.Context, id uint, input service.UpdateProductInput) (*domain.Product, error) {
	s.updateID = id
	s.updateInput = &input
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &domain.Product{ID: id, Name: "Updated", Price: decimal.NewFromInt(1), Image: domain.DefaultImage}, nil
}

func (s *stubCatalogService) DeleteByID(ctx context.Context, id uint) error { return s.deleteErr }

func (s *stubCatalogService) GetByID(ctx context.Context, id uint) (*service.ProductView, error) {
	return &service.ProductView{Product: domain.Product{ID: id, Name: "Widget"}}, nil
}

func (s *stubCatalogService) ListProducts(ctx context.Context, req repository.PageRequest) (repository.PageResult[service.ProductView], error) {
	return repository.PageResult[service.ProductView]{Items: []service.ProductView{}, Page: 1, PageSize: 10}, nil
}

func (s *stubCatalogService) ListCatalog(ctx context.Context, req repository.PageRequest) (repository.PageResult[service.CatalogItem], float64, error) {
	return repository.PageResult[service.CatalogItem]{Items: []service.CatalogItem{}, Page: 1, PageSize: 10}, s.rate, nil
}

func (s *stubCatalogService) GetCatalogItem(ctx context.Context, id uint) (*service.CatalogItem, float64, error) {
	return &service.CatalogItem{ID: id}, s.rate, nil
}

func (s *stubCatalogService) DisplayRate(ctx context.Context) float64 { return s.rate }

func newHandlerRouterForTest(svc service.CatalogService) http.Handler {
	products := NewProductHandler(svc)
	catalog := NewCatalogHandler(svc)
	r := chi.NewRouter()
	r.Post("/products", products.Create)
	r.Post("/products/{id}", products.Update)
	r.Delete("/products/{id}", products.Delete)
	r.Get("/products", products.List)
	r.Get("/catalog", catalog.List)
	r.Get("/catalog/rate", catalog.Rate)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, imageName string, imageContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if imageName != "" {
		fw, err := w.CreateFormFile("image", imageName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(imageContent); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestCreateProductParsesMultipart(t *testing.T) {
	svc := &stubCatalogService{}
	router := newHandlerRouterForTest(svc)

	body, contentType := multipartBody(t, map[string]string{
		"name":        "Standing Desk",
		"description": "adjustable",
		"price":       "299.99",
	}, "desk.jpg", []byte("fake-image-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createInput == nil {
		t.Fatal("service never called")
	}
	if svc.createInput.Name != "Standing Desk" {
		t.Fatalf("unexpected name: %q", svc.createInput.Name)
	}
	if !svc.createInput.Price.Equal(decimal.RequireFromString("299.99")) {
		t.Fatalf("unexpected price: %s", svc.createInput.Price)
	}
	if svc.createInput.Image == nil || svc.createInput.Image.Size != int64(len("fake-image-bytes")) {
		t.Fatalf("image upload not forwarded: %+v", svc.createInput.Image)
	}
}

func TestCreateProductWithoutImage(t *testing.T) {
	svc := &stubCatalogService{}
	router := newHandlerRouterForTest(svc)

	body, contentType := multipartBody(t, map[string]string{
		"name":  "Standing Desk",
		"price": "299.99",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.createInput.Image != nil {
		t.Fatal("expected no image upload")
	}
}

func TestCreateProductInvalidPrice(t *testing.T) {
	svc := &stubCatalogService{}
	router := newHandlerRouterForTest(svc)

	body, contentType := multipartBody(t, map[string]string{
		"name":  "Standing Desk",
		"price": "abc",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if svc.createInput != nil {
		t.Fatal("service must not be called on a bad price")
	}
}

func TestCreateProductErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"conflict", repository.ErrProductNameTaken, http.StatusConflict},
		{"invalid name", service.ErrProductInvalidName, http.StatusBadRequest},
		{"asset too large", service.ErrAssetTooLarge, http.StatusBadRequest},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubCatalogService{createErr: tc.err}
			router := newHandlerRouterForTest(svc)

			body, contentType := multipartBody(t, map[string]string{
				"name":  "Standing Desk",
				"price": "10",
			}, "", nil)
			req := httptest.NewRequest(http.MethodPost, "/products", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestCreateProductInternalErrorStaysGeneric(t *testing.T) {
	svc := &stubCatalogService{createErr: errors.New("pq: connection refused")}
	router := newHandlerRouterForTest(svc)

	body, contentType := multipartBody(t, map[string]string{"name": "Standing Desk", "price": "10"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error.Message != "failed to add product" {
		t.Fatalf("internal detail leaked: %q", payload.Error.Message)
	}
}

func TestUpdateProductPartialFields(t *testing.T) {
	svc := &stubCatalogService{}
	router := newHandlerRouterForTest(svc)

	body, contentType := multipartBody(t, map[string]string{"price": "249.99"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/products/7", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updateID != 7 {
		t.Fatalf("unexpected id: %d", svc.updateID)
	}
	if svc.updateInput.Name != nil || svc.updateInput.Description != nil || svc.updateInput.Image != nil {
		t.Fatalf("absent fields must stay nil: %+v", svc.updateInput)
	}
	if svc.updateInput.Price == nil || !svc.updateInput.Price.Equal(decimal.RequireFromString("249.99")) {
		t.Fatalf("price not forwarded: %+v", svc.updateInput.Price)
	}
}

func TestUpdateProductInvalidID(t *testing.T) {
	svc := &stubCatalogService{}
	router := newHandlerRouterForTest(svc)

	body, contentType := multipartBody(t, map[string]string{"price": "1"}, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/products/abc", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestDeleteProductNotFound(t *testing.T) {
	svc := &stubCatalogService{deleteErr: repository.ErrProductNotFound}
	router := newHandlerRouterForTest(svc)

	req := httptest.NewRequest(http.MethodDelete, "/products/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestListProductsRejectsBadPage(t *testing.T) {
	svc := &stubCatalogService{}
	router := newHandlerRouterForTest(svc)

	req := httptest.NewRequest(http.MethodGet, "/products?page=0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestCatalogListIncludesExchangeRate(t *testing.T) {
	svc := &stubCatalogService{rate: 0.92}
	router := newHandlerRouterForTest(svc)

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["exchange_rate"] != 0.92 {
		t.Fatalf("exchange_rate missing or wrong: %v", payload["exchange_rate"])
	}
}

func TestCatalogRateEndpoint(t *testing.T) {
	svc := &stubCatalogService{rate: 0.92}
	router := newHandlerRouterForTest(svc)

	req := httptest.NewRequest(http.MethodGet, "/catalog/rate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["base"] != "USD" || payload["target"] != "EUR" || payload["rate"] != 0.92 {
		t.Fatalf("unexpected rate payload: %v", payload)
	}
}
