package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/catalogops/priced-catalog-service/internal/http/response"
	"github.com/catalogops/priced-catalog-service/internal/repository"
	"github.com/catalogops/priced-catalog-service/internal/service"
)

// maxMutationBodySize bounds the multipart payload; the asset store applies
// the stricter 500KB limit to the image itself.
const maxMutationBodySize = 1 << 20

// ProductHandler exposes the admin mutation endpoints. Create and update
// accept multipart/form-data so an image file can ride along with the
// fields.
type ProductHandler struct {
	svc service.CatalogService
}

func NewProductHandler(svc service.CatalogService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMutationBodySize)
	if err := r.ParseMultipartForm(maxMutationBodySize); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart payload", nil)
		return
	}

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "price must be a decimal number", nil)
		return
	}

	input := service.CreateProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		input.Image = &service.ImageUpload{Content: file, Size: header.Size}
	case errors.Is(err, http.ErrMissingFile):
	default:
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid image upload", nil)
		return
	}

	created, err := h.svc.Create(r.Context(), input)
	if err != nil {
		writeMutationError(w, r, err, "failed to add product")
		return
	}
	response.JSON(w, r, http.StatusCreated, created)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxMutationBodySize)
	if err := r.ParseMultipartForm(maxMutationBodySize); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart payload", nil)
		return
	}

	input := service.UpdateProductInput{}
	if v, ok := formValue(r, "name"); ok {
		input.Name = &v
	}
	if v, ok := formValue(r, "description"); ok {
		input.Description = &v
	}
	if v, ok := formValue(r, "price"); ok {
		price, err := decimal.NewFromString(v)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "price must be a decimal number", nil)
			return
		}
		input.Price = &price
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		input.Image = &service.ImageUpload{Content: file, Size: header.Size}
	case errors.Is(err, http.ErrMissingFile):
	default:
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid image upload", nil)
		return
	}

	updated, err := h.svc.Update(r.Context(), productID, input)
	if err != nil {
		writeMutationError(w, r, err, "failed to edit product")
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}

	if err := h.svc.DeleteByID(r.Context(), productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to delete product", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"deleted": true})
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	res, err := h.svc.ListProducts(r.Context(), pageReq)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list products", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, paginatedData(res.Items, res.Page, res.PageSize, res.Total, res.TotalPages))
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}

	product, err := h.svc.GetByID(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, product)
}

func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// writeMutationError maps service errors to the response envelope. Internal
// failures stay generic; details live in the logs.
func writeMutationError(w http.ResponseWriter, r *http.Request, err error, generic string) {
	switch {
	case errors.Is(err, service.ErrProductInvalidName),
		errors.Is(err, service.ErrProductInvalidDescription),
		errors.Is(err, service.ErrProductInvalidPrice),
		errors.Is(err, service.ErrProductNoUpdates),
		errors.Is(err, service.ErrAssetTooLarge),
		errors.Is(err, service.ErrAssetInvalidType):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, repository.ErrProductNameTaken):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "product name already taken", nil)
	case errors.Is(err, repository.ErrProductNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", generic, nil)
	}
}
