package catalog

import (
	"net/http"

	"github.com/revo-studio/storefront/internal/common"
)

// Handler exposes catalog browsing endpoints.
type Handler struct {
	Svc *Service
}

// Products lists the catalog, optionally filtered by the category query
// parameter and capped by limit (0 means everything).
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	products := h.Svc.List(r.URL.Query().Get("category"))
	if products == nil {
		products = []Product{}
	}
	if limit := common.AtoiDefault(r.URL.Query().Get("limit"), 0); limit > 0 && limit < len(products) {
		products = products[:limit]
	}
	common.JSONData(w, http.StatusOK, products)
}
