package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/catalogops/priced-catalog-service/internal/http/response"
	"github.com/catalogops/priced-catalog-service/internal/repository"
	"github.com/catalogops/priced-catalog-service/internal/service"
)

// CatalogHandler serves the public listing with prices converted to EUR.
type CatalogHandler struct {
	svc service.CatalogService
}

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}

	res, rate, err := h.svc.ListCatalog(r.Context(), pageReq)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to list catalog", nil)
		return
	}
	data := paginatedData(res.Items, res.Page, res.PageSize, res.Total, res.TotalPages)
	data["exchange_rate"] = rate
	response.JSON(w, r, http.StatusOK, data)
}

func (h *CatalogHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID, err := parsePathID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
		return
	}

	item, rate, err := h.svc.GetCatalogItem(r.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load product", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"product":       item,
		"exchange_rate": rate,
	})
}

func (h *CatalogHandler) Rate(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]any{
		"base":   "USD",
		"target": "EUR",
		"rate":   h.svc.DisplayRate(r.Context()),
	})
}
