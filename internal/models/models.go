package models

// QuotaThreshold is the price above which a gift is split into quotas.
const QuotaThreshold = 1100.0

// DefaultQuotasTotal is used whenever a quota-eligible gift has no stored quota count.
const DefaultQuotasTotal = 10

// Status of a gift as seen by guests.
type Status string

const (
	StatusAvailable Status = "available"
	StatusPartial   Status = "partial" // derived only, never stored
	StatusReserved  Status = "reserved"
	StatusPurchased Status = "purchased"
)

// Taken reports whether the status blocks a new whole-item reservation.
func (s Status) Taken() bool {
	return s == StatusReserved || s == StatusPurchased
}

// Column names of the gift sheet.
const (
	ColID          = "ID"
	ColName        = "Nome"
	ColDescription = "Descrição"
	ColValue       = "Valor"
	ColImage       = "Imagem"
	ColStoreLink   = "LinkLoja"
	ColCategory    = "Categoria"
	ColStatus      = "Status"
	ColReservedBy  = "ReservadoPor"
	ColReservedAt  = "DataReserva"
	ColPhone       = "Telefone"

	ColQuotasTotal    = "CotasTotal"
	ColQuotasReserved = "CotasReservadas"
	ColQuotaValue     = "ValorCota"
	ColHistory        = "HistoricoReservas"
)

// Columns is the full header the service knows how to fill, in sheet order.
var Columns = []string{
	ColID, ColName, ColDescription, ColValue, ColImage, ColStoreLink, ColCategory,
	ColStatus, ColReservedBy, ColReservedAt, ColPhone,
	ColQuotasTotal, ColQuotasReserved, ColQuotaValue, ColHistory,
}

// NumericColumns hold numbers in the sheet.
var NumericColumns = []string{ColValue, ColQuotasTotal, ColQuotasReserved, ColQuotaValue}

// GiftRecord is the normalized view of one sheet row.
type GiftRecord struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	EstimatedValue float64 `json:"estimatedValue"`
	Image          string  `json:"image"`
	StoreLink      string  `json:"storeLink,omitempty"`
	Category       string  `json:"category"`
	Status         Status  `json:"status"`

	// Quota fields, only set when IsQuotaEligible.
	IsQuotaEligible bool     `json:"isQuotaEligible,omitempty"`
	QuotaValue      *float64 `json:"quotaValue,omitempty"`
	QuotasTotal     *int     `json:"quotasTotal,omitempty"`
	QuotasReserved  *int     `json:"quotasReserved,omitempty"`
	QuotasRemaining *int     `json:"quotasRemaining,omitempty"`

	// Reservation metadata, exposed to admins only.
	ReservedBy         string `json:"reservedBy,omitempty"`
	Phone              string `json:"phone,omitempty"`
	ReservationDate    string `json:"reservationDate,omitempty"`
	ReservationHistory string `json:"reservationHistory,omitempty"`
}

// Public strips the guests' personal data.
func (g GiftRecord) Public() GiftRecord {
	g.ReservedBy = ""
	g.Phone = ""
	g.ReservationDate = ""
	g.ReservationHistory = ""
	return g
}

// ReservationRequest is what a guest asks for. It is never persisted as such.
type ReservationRequest struct {
	GiftID     string
	ReservedBy string
	Phone      string
	// Status is the target for quota-ineligible gifts: reserved (default) or purchased.
	Status       Status
	ReserveWhole bool
	// QuotasToReserve is ignored when ReserveWhole is set.
	QuotasToReserve *int
}
