package gifts

import (
	"context"
	"strings"
	"unicode"

	"casamento-presentes/internal/models"
)

// minPhoneDigits is how many trailing digits must match when one number carries a
// country or area prefix the other lacks.
const minPhoneDigits = 8

// ReservationsByPhone lists the gifts a guest has claimed, matched on the phone numbers
// accumulated in each row.
func (s *Service) ReservationsByPhone(ctx context.Context, phone string) ([]models.GiftRecord, error) {
	want := digits(phone)
	if want == "" {
		return nil, ErrInvalid
	}

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	out := []models.GiftRecord{}
	for _, g := range all {
		if g.Status != models.StatusReserved && g.Status != models.StatusPartial {
			continue
		}
		for _, p := range strings.Split(g.Phone, strings.TrimSpace(listSeparator)) {
			if samePhone(digits(p), want) {
				out = append(out, g)
				break
			}
		}
	}
	return out, nil
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func samePhone(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	return len(short) >= minPhoneDigits && strings.HasSuffix(long, short)
}

// Category is a gift category decorated for display.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Categories lists the distinct categories of the current gifts, in order of appearance.
func (s *Service) Categories(ctx context.Context) ListCategories {
	list := s.List(ctx, "")

	seen := make(map[string]bool)
	out := []Category{}
	for _, g := range list.Gifts {
		key := strings.ToLower(g.Category)
		if g.Category == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Category{
			ID:          g.Category,
			Name:        s.catalog.Name(g.Category),
			Description: s.catalog.Description(g.Category),
		})
	}
	return ListCategories{Categories: out, Fallback: list.Fallback}
}

// ListCategories mirrors ListResult for categories.
type ListCategories struct {
	Categories []Category
	Fallback   bool
}

// Summary is the admin dashboard view of the registry.
type Summary struct {
	Gifts     int `json:"gifts"`
	Available int `json:"available"`
	Partial   int `json:"partial"`
	Reserved  int `json:"reserved"`
	Purchased int `json:"purchased"`

	QuotasTotal    int `json:"quotasTotal"`
	QuotasReserved int `json:"quotasReserved"`

	// PledgedValue is what guests have claimed; OpenValue is what is still up for grabs.
	PledgedValue float64 `json:"pledgedValue"`
	OpenValue    float64 `json:"openValue"`
}

// Summarize reads the sheet and totals it.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	all, err := s.load(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(all), nil
}

// Summarize totals a listing.
func Summarize(gifts []models.GiftRecord) Summary {
	var sum Summary
	for _, g := range gifts {
		sum.Gifts++
		switch g.Status {
		case models.StatusPartial:
			sum.Partial++
		case models.StatusReserved:
			sum.Reserved++
		case models.StatusPurchased:
			sum.Purchased++
		default:
			sum.Available++
		}

		if !g.IsQuotaEligible {
			if g.Status.Taken() {
				sum.PledgedValue += g.EstimatedValue
			} else {
				sum.OpenValue += g.EstimatedValue
			}
			continue
		}

		sum.QuotasTotal += *g.QuotasTotal
		sum.QuotasReserved += *g.QuotasReserved
		sum.PledgedValue += *g.QuotaValue * float64(*g.QuotasReserved)
		sum.OpenValue += *g.QuotaValue * float64(*g.QuotasRemaining)
	}
	sum.PledgedValue = Round2(sum.PledgedValue)
	sum.OpenValue = Round2(sum.OpenValue)
	return sum
}
