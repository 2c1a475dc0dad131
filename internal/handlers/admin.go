package handlers

import (
	"net/http"
)

// AdminGifts lists every gift with who reserved it.
func (h *Handler) AdminGifts(w http.ResponseWriter, r *http.Request) {
	all, err := h.gifts.All(r.Context())
	if err != nil {
		h.log.Error("admin.gifts.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "Planilha indisponível")
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// AdminSummary totals the registry.
func (h *Handler) AdminSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.gifts.Summarize(r.Context())
	if err != nil {
		h.log.Error("admin.summary.fail", "err", err)
		writeError(w, http.StatusServiceUnavailable, "Planilha indisponível")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
