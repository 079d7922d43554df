package invoice

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/revo-studio/storefront/internal/cart"
	"github.com/revo-studio/storefront/internal/common"
	"github.com/revo-studio/storefront/internal/pricing"
)

// Handler exposes checkout and invoice download over HTTP.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
	Cookie   cart.SlotCookie
}

type checkoutInput struct {
	Confirm bool `json:"confirm" validate:"required,eq=true"`
}

// Checkout turns the caller's cart into a stored invoice. The confirm flag
// must be true, matching the purchase confirmation step in the UI.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "checkout unavailable", nil)
		return
	}
	var payload checkoutInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "purchase must be confirmed", nil)
			return
		}
	}
	slot := h.Cookie.Resolve(w, r)
	receipt, err := h.Service.Checkout(r.Context(), slot)
	if err != nil {
		h.writeError(w, err, "invoice generation failed")
		return
	}
	common.JSONData(w, http.StatusCreated, map[string]any{
		"invoice_id": receipt.Invoice.ID,
		"issued_at":  receipt.Invoice.IssuedAt,
		"pages":      receipt.Pages,
		"download":   "/api/v1/invoices/" + receipt.Invoice.ID,
		"summary": map[string]string{
			"subtotal": pricing.FormatAmount(receipt.Totals.Subtotal),
			"tax":      pricing.FormatAmount(receipt.Totals.Tax),
			"total":    pricing.FormatAmount(receipt.Totals.GrandTotal),
		},
	})
}

// Download streams a stored invoice PDF.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "invoices unavailable", nil)
		return
	}
	id := chi.URLParam(r, "invoiceID")
	pdf, err := h.Service.Download(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "could not read invoice")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// writeError surfaces AppError values with their attached code and status;
// anything else becomes a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, fallback string) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = fallback
		}
		common.JSONError(w, status, code, message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", fallback, nil)
}
