package handlers

import (
	"errors"
	"strconv"
	"time"

	"casamento-presentes/internal/checkout"
	"casamento-presentes/internal/gifts"
	"casamento-presentes/internal/models"
)

type reserveRequest struct {
	GiftID     string `json:"giftId"`
	ReservedBy string `json:"reservedBy"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`

	ReserveWhole bool `json:"reserveWhole"`
	// Fractions are truncated.
	QuotasToReserve *float64 `json:"quotasToReserve"`

	AdditionalInfo string `json:"additionalInfo"`
}

func (r reserveRequest) toModel() models.ReservationRequest {
	status := models.StatusReserved
	if models.Status(r.Status) == models.StatusPurchased {
		status = models.StatusPurchased
	}
	return models.ReservationRequest{
		GiftID:          r.GiftID,
		ReservedBy:      r.ReservedBy,
		Phone:           r.Phone,
		Status:          status,
		ReserveWhole:    r.ReserveWhole,
		QuotasToReserve: truncate(r.QuotasToReserve),
	}
}

func truncate(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

type reserveResponse struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	ReservationID string        `json:"reservationId"`
	GiftID        string        `json:"giftId"`
	ReservedBy    string        `json:"reservedBy"`
	Status        models.Status `json:"status"`
	ReservedAt    string        `json:"reservedAt"`

	QuotaReservation    bool     `json:"quotaReservation,omitempty"`
	ReservedQuotasCount *int     `json:"reservedQuotasCount,omitempty"`
	QuotasTotal         *int     `json:"quotasTotal,omitempty"`
	QuotasReserved      *int     `json:"quotasReserved,omitempty"`
	QuotasRemaining     *int     `json:"quotasRemaining,omitempty"`
	IsFullyReserved     *bool    `json:"isFullyReserved,omitempty"`
	QuotaValue          *float64 `json:"quotaValue,omitempty"`
}

func newReserveResponse(res gifts.Reservation) reserveResponse {
	out := reserveResponse{
		Success:       true,
		Message:       "Presente marcado como " + string(res.Status) + " com sucesso",
		ReservationID: res.ID,
		GiftID:        res.GiftID,
		ReservedBy:    res.ReservedBy,
		Status:        res.Status,
		ReservedAt:    res.ReservedAt.Format(time.RFC3339Nano),
	}
	if !res.QuotaReservation {
		return out
	}

	out.Message = quotaMessage(res.ReservedQuotas)
	out.QuotaReservation = true
	out.ReservedQuotasCount = &res.ReservedQuotas
	out.QuotasTotal = &res.QuotasTotal
	out.QuotasReserved = &res.QuotasReserved
	out.QuotasRemaining = &res.QuotasRemaining
	out.IsFullyReserved = &res.FullyReserved
	out.QuotaValue = &res.QuotaValue
	return out
}

func quotaMessage(n int) string {
	if n == 1 {
		return "1 cota reservada com sucesso"
	}
	return strconv.Itoa(n) + " cotas reservadas com sucesso"
}

type checkoutRequest struct {
	Name  string         `json:"name"`
	Phone string         `json:"phone"`
	Items []checkoutItem `json:"items"`
}

type checkoutItem struct {
	GiftID          string   `json:"giftId"`
	GiftName        string   `json:"giftName"`
	FurnitureName   string   `json:"furnitureName"`
	ReserveWhole    bool     `json:"reserveWhole"`
	QuotasToReserve *float64 `json:"quotasToReserve"`
}

type checkoutResponse struct {
	Success     bool               `json:"success"`
	Error       string             `json:"error,omitempty"`
	Succeeded   int                `json:"succeeded"`
	Failed      int                `json:"failed"`
	TotalValue  float64            `json:"totalValue"`
	Message     string             `json:"message,omitempty"`
	WhatsAppURL string             `json:"whatsappUrl,omitempty"`
	Items       []checkoutItemView `json:"items"`
}

type checkoutItemView struct {
	GiftID              string        `json:"giftId"`
	GiftName            string        `json:"giftName,omitempty"`
	Success             bool          `json:"success"`
	Error               string        `json:"error,omitempty"`
	MaxAvailable        *int          `json:"maxAvailable,omitempty"`
	ReservationID       string        `json:"reservationId,omitempty"`
	Status              models.Status `json:"status,omitempty"`
	ReservedQuotasCount int           `json:"reservedQuotasCount,omitempty"`
	QuotasRemaining     *int          `json:"quotasRemaining,omitempty"`
	Amount              float64       `json:"amount,omitempty"`
}

func newCheckoutResponse(res checkout.Result) checkoutResponse {
	out := checkoutResponse{
		Success:     res.Succeeded > 0,
		Succeeded:   res.Succeeded,
		Failed:      res.Failed,
		TotalValue:  res.TotalValue,
		Message:     res.Message,
		WhatsAppURL: res.WhatsAppURL,
		Items:       make([]checkoutItemView, 0, len(res.Items)),
	}
	if res.Succeeded == 0 {
		out.Error = "Não foi possível reservar nenhum dos itens selecionados. Eles podem já ter sido reservados por outra pessoa."
	}

	for _, item := range res.Items {
		view := checkoutItemView{
			GiftID:   item.Selection.GiftID,
			GiftName: item.Selection.GiftName,
			Success:  item.OK(),
		}
		if !item.OK() {
			view.Error = gifts.UserMessage(item.Err)
			if capErr, ok := asCapacity(item.Err); ok {
				remaining := capErr.Remaining
				view.MaxAvailable = &remaining
			}
			out.Items = append(out.Items, view)
			continue
		}

		r := item.Reservation
		view.ReservationID = r.ID
		view.Status = r.Status
		view.Amount = r.Amount
		if r.QuotaReservation {
			view.ReservedQuotasCount = r.ReservedQuotas
			remaining := r.QuotasRemaining
			view.QuotasRemaining = &remaining
		}
		out.Items = append(out.Items, view)
	}
	return out
}

func (c checkoutRequest) selections() []checkout.Selection {
	out := make([]checkout.Selection, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, checkout.Selection{
			GiftID:          it.GiftID,
			GiftName:        it.GiftName,
			FurnitureName:   it.FurnitureName,
			ReserveWhole:    it.ReserveWhole,
			QuotasToReserve: truncate(it.QuotasToReserve),
		})
	}
	return out
}

func asCapacity(err error) (*gifts.CapacityError, bool) {
	var capErr *gifts.CapacityError
	ok := errors.As(err, &capErr)
	return capErr, ok
}
