package gifts

import (
	"strings"

	"casamento-presentes/internal/models"
	"casamento-presentes/internal/sheet"
)

// quotaState is the quota view of a row, read the same way by the projector and the engine.
type quotaState struct {
	total    int
	reserved int
	value    float64
	// stored* report whether the sheet already holds the value.
	storedTotal bool
	storedValue bool
}

func (q quotaState) remaining() int {
	return max(q.total-q.reserved, 0)
}

func (q quotaState) status() models.Status {
	switch {
	case q.reserved >= q.total:
		return models.StatusReserved
	case q.reserved > 0:
		return models.StatusPartial
	default:
		return models.StatusAvailable
	}
}

// IsQuotaEligible reports whether a price is split into quotas.
func IsQuotaEligible(value float64) bool {
	return value > models.QuotaThreshold
}

func readQuotas(row *sheet.Row, header sheet.Header, value float64) quotaState {
	q := quotaState{total: models.DefaultQuotasTotal}

	if header.Has(models.ColQuotasTotal) {
		raw := row.Get(models.ColQuotasTotal)
		q.storedTotal = raw != ""
		q.total = max(ParseCount(raw, models.DefaultQuotasTotal), 1)
	}
	if header.Has(models.ColQuotasReserved) {
		q.reserved = max(ParseCount(row.Get(models.ColQuotasReserved), 0), 0)
	}

	derived := PerQuota(value, q.total)
	q.value = derived
	if header.Has(models.ColQuotaValue) {
		if raw := row.Get(models.ColQuotaValue); raw != "" {
			q.storedValue = true
			q.value = ParseNumber(raw, derived)
		}
	}
	return q
}

func storedStatus(row *sheet.Row) models.Status {
	s := strings.ToLower(row.Get(models.ColStatus))
	if s == "" {
		return models.StatusAvailable
	}
	return models.Status(s)
}

// Project turns a raw row into a gift record. It never fails; malformed cells fall
// back to defaults.
func Project(row *sheet.Row, header sheet.Header) models.GiftRecord {
	value := ParseNumber(row.Get(models.ColValue), 0)

	g := models.GiftRecord{
		ID:                 row.Get(models.ColID),
		Name:               row.Get(models.ColName),
		Description:        row.Get(models.ColDescription),
		EstimatedValue:     value,
		Image:              row.Get(models.ColImage),
		StoreLink:          row.Get(models.ColStoreLink),
		Category:           row.Get(models.ColCategory),
		Status:             storedStatus(row),
		ReservedBy:         row.Get(models.ColReservedBy),
		Phone:              row.Get(models.ColPhone),
		ReservationDate:    row.Get(models.ColReservedAt),
		ReservationHistory: row.Get(models.ColHistory),
	}

	if !IsQuotaEligible(value) {
		return g
	}

	q := readQuotas(row, header, value)
	total, reserved, remaining, perQuota := q.total, q.reserved, q.remaining(), q.value

	g.IsQuotaEligible = true
	g.QuotasTotal = &total
	g.QuotasReserved = &reserved
	g.QuotasRemaining = &remaining
	g.QuotaValue = &perQuota
	g.Status = q.status()
	return g
}
