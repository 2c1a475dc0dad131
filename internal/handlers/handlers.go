package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"casamento-presentes/internal/checkout"
	"casamento-presentes/internal/gifts"
	"casamento-presentes/internal/models"
)

// Gifts is what the HTTP layer needs from gifts.Service.
type Gifts interface {
	List(ctx context.Context, category string) gifts.ListResult
	All(ctx context.Context) ([]models.GiftRecord, error)
	Reserve(ctx context.Context, req models.ReservationRequest) (gifts.Reservation, error)
	ReservationsByPhone(ctx context.Context, phone string) ([]models.GiftRecord, error)
	Categories(ctx context.Context) gifts.ListCategories
	Summarize(ctx context.Context) (gifts.Summary, error)
}

// Checkout runs a multi-item reservation.
type Checkout interface {
	Checkout(ctx context.Context, guest checkout.Guest, items []checkout.Selection) (checkout.Result, error)
}

type Handler struct {
	gifts    Gifts
	checkout Checkout
	log      *slog.Logger
}

func New(g Gifts, c Checkout, log *slog.Logger) *Handler {
	return &Handler{gifts: g, checkout: c, log: log}
}

func markFallback(w http.ResponseWriter, fallback bool) {
	if !fallback {
		return
	}
	w.Header().Set("X-Fallback-Data", "true")
	w.Header().Set("Cache-Control", "no-store")
}

// ListGifts answers GET /api/gifts. Reservation metadata is stripped.
func (h *Handler) ListGifts(w http.ResponseWriter, r *http.Request) {
	res := h.gifts.List(r.Context(), r.URL.Query().Get("category"))

	out := make([]models.GiftRecord, 0, len(res.Gifts))
	for _, g := range res.Gifts {
		out = append(out, g.Public())
	}

	markFallback(w, res.Fallback)
	writeJSON(w, http.StatusOK, out)
}

// Reserve answers POST /api/gifts.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var body reserveRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.log.Warn("gift.reserve.bad_body", "err", err)
		writeError(w, http.StatusBadRequest, "Dados incompletos")
		return
	}

	res, err := h.gifts.Reserve(r.Context(), body.toModel())
	if err != nil {
		writeReserveError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReserveResponse(res))
}

// Categories answers GET /api/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	res := h.gifts.Categories(r.Context())

	out := res.Categories
	if out == nil {
		out = []gifts.Category{}
	}
	markFallback(w, res.Fallback)
	writeJSON(w, http.StatusOK, out)
}

// MyReservations answers GET /api/reservations?phone=.
func (h *Handler) MyReservations(w http.ResponseWriter, r *http.Request) {
	phone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if phone == "" {
		writeError(w, http.StatusBadRequest, "Telefone é obrigatório")
		return
	}

	found, err := h.gifts.ReservationsByPhone(r.Context(), phone)
	if err != nil {
		h.log.Error("gift.reservations.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Erro ao buscar reservas")
		return
	}

	out := make([]models.GiftRecord, 0, len(found))
	for _, g := range found {
		out = append(out, g.Public())
	}
	writeJSON(w, http.StatusOK, out)
}

// Checkout answers POST /api/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var body checkoutRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.log.Warn("checkout.bad_body", "err", err)
		writeError(w, http.StatusBadRequest, "Dados incompletos")
		return
	}

	res, err := h.checkout.Checkout(r.Context(),
		checkout.Guest{Name: body.Name, Phone: body.Phone}, body.selections())
	switch {
	case errors.Is(err, checkout.ErrGuestRequired):
		writeError(w, http.StatusBadRequest, "Por favor, preencha seu nome e telefone")
		return
	case errors.Is(err, checkout.ErrEmptySelection):
		writeError(w, http.StatusBadRequest, "Selecione ao menos um presente")
		return
	case err != nil:
		h.log.Error("checkout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "Erro ao finalizar a reserva")
		return
	}

	status := http.StatusOK
	if res.Succeeded == 0 {
		status = http.StatusConflict
	}
	writeJSON(w, status, newCheckoutResponse(res))
}

func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
