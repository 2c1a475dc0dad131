package gifts

import (
	"fmt"
	"strconv"
	"time"

	"casamento-presentes/internal/models"
	"casamento-presentes/internal/sheet"
)

const (
	listSeparator    = " | "
	phonePlaceholder = "não informado"
	timestampLayout  = "2006-01-02T15:04:05.000Z"
)

// Reservation is the outcome of a successful claim.
type Reservation struct {
	ID       string
	GiftID   string
	GiftName string

	ReservedBy string
	Phone      string
	Status     models.Status
	ReservedAt time.Time

	QuotaReservation bool
	ReservedQuotas   int
	QuotasTotal      int
	QuotasReserved   int
	QuotasRemaining  int
	FullyReserved    bool
	QuotaValue       float64

	// Amount is what this claim is worth; EstimatedValue is the whole gift.
	Amount         float64
	EstimatedValue float64
}

// Apply validates the request against the row as it is now and writes the resulting
// cells into row. The caller persists the row.
func Apply(row *sheet.Row, header sheet.Header, req models.ReservationRequest, now time.Time, receipt string) (Reservation, error) {
	value := ParseNumber(row.Get(models.ColValue), 0)
	now = now.UTC()

	res := Reservation{
		ID:             receipt,
		GiftID:         row.Get(models.ColID),
		GiftName:       row.Get(models.ColName),
		ReservedBy:     req.ReservedBy,
		Phone:          req.Phone,
		ReservedAt:     now,
		EstimatedValue: value,
	}

	if !IsQuotaEligible(value) {
		return applyWhole(row, header, req, res)
	}
	return applyQuotas(row, header, req, res, value)
}

func applyWhole(row *sheet.Row, header sheet.Header, req models.ReservationRequest, res Reservation) (Reservation, error) {
	if storedStatus(row).Taken() {
		return Reservation{}, ErrConflict
	}

	target := models.StatusReserved
	if req.Status == models.StatusPurchased {
		target = models.StatusPurchased
	}
	stamp := res.ReservedAt.Format(timestampLayout)

	row.Set(models.ColStatus, string(target))
	row.Set(models.ColReservedBy, req.ReservedBy)
	row.Set(models.ColReservedAt, stamp)
	if req.Phone != "" {
		row.Set(models.ColPhone, req.Phone)
	}
	if header.Has(models.ColHistory) {
		line := historyLine(stamp, req.ReservedBy, req.Phone, wholeLabel(target))
		row.Set(models.ColHistory, appendLine(row.Get(models.ColHistory), line))
	}

	res.Status = target
	res.Amount = res.EstimatedValue
	return res, nil
}

func applyQuotas(row *sheet.Row, header sheet.Header, req models.ReservationRequest, res Reservation, value float64) (Reservation, error) {
	if !header.Has(models.ColQuotasReserved) {
		return Reservation{}, &ColumnError{Column: models.ColQuotasReserved}
	}

	// Always re-read from the row: a record projected earlier may be stale.
	q := readQuotas(row, header, value)
	if q.reserved >= q.total || storedStatus(row) == models.StatusPurchased {
		return Reservation{}, ErrConflict
	}

	remaining := q.total - q.reserved
	requested := remaining
	if !req.ReserveWhole {
		requested = 1
		if req.QuotasToReserve != nil {
			requested = max(*req.QuotasToReserve, 1)
		}
		if requested > remaining {
			return Reservation{}, &CapacityError{Requested: requested, Remaining: remaining}
		}
	}

	next := q.reserved + requested
	full := next >= q.total
	stored := models.StatusAvailable
	if full {
		stored = models.StatusReserved
	}

	stamp := res.ReservedAt.Format(timestampLayout)
	label := quotaLabel(requested)
	phone := req.Phone
	if phone == "" {
		phone = phonePlaceholder
	}

	row.Set(models.ColStatus, string(stored))
	row.Set(models.ColReservedBy, appendItem(row.Get(models.ColReservedBy), fmt.Sprintf("%s (%s)", req.ReservedBy, label)))
	row.Set(models.ColReservedAt, stamp)
	row.Set(models.ColPhone, appendItem(row.Get(models.ColPhone), phone))
	row.Set(models.ColQuotasReserved, strconv.Itoa(next))
	if header.Has(models.ColQuotasTotal) && !q.storedTotal {
		row.Set(models.ColQuotasTotal, strconv.Itoa(q.total))
	}
	if header.Has(models.ColQuotaValue) && !q.storedValue {
		row.Set(models.ColQuotaValue, FormatAmount(q.value))
	}
	if header.Has(models.ColHistory) {
		row.Set(models.ColHistory, appendLine(row.Get(models.ColHistory), historyLine(stamp, req.ReservedBy, phone, label)))
	}

	after := quotaState{total: q.total, reserved: next}

	res.QuotaReservation = true
	res.ReservedQuotas = requested
	res.QuotasTotal = q.total
	res.QuotasReserved = next
	res.QuotasRemaining = after.remaining()
	res.FullyReserved = full
	res.QuotaValue = q.value
	res.Status = after.status()
	res.Amount = Round2(q.value * float64(requested))
	if requested == q.total {
		res.Amount = value
	}
	return res, nil
}

func quotaLabel(n int) string {
	return fmt.Sprintf("%d cota(s)", n)
}

func wholeLabel(s models.Status) string {
	if s == models.StatusPurchased {
		return "comprado"
	}
	return "presente inteiro"
}

func historyLine(stamp, name, phone, what string) string {
	if phone == "" {
		phone = phonePlaceholder
	}
	return stamp + " — " + name + " — " + phone + " — " + what
}

func appendItem(existing, item string) string {
	if existing == "" {
		return item
	}
	return existing + listSeparator + item
}

func appendLine(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}
