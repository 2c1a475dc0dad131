// Package checkout reserves a guest's whole selection and prepares the WhatsApp message
// that confirms it with the couple.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"casamento-presentes/internal/gifts"
	"casamento-presentes/internal/models"

	"golang.org/x/sync/errgroup"
)

const DefaultWhatsAppNumber = "5511999999999"

var (
	ErrGuestRequired  = errors.New("guest name and phone are required")
	ErrEmptySelection = errors.New("nothing selected")
)

// Reserver is the part of gifts.Service the flow needs.
type Reserver interface {
	Reserve(ctx context.Context, req models.ReservationRequest) (gifts.Reservation, error)
}

// Guest is the session-local identity captured by the site.
type Guest struct {
	Name  string
	Phone string
}

// Selection is one item of the guest's list.
type Selection struct {
	GiftID        string
	GiftName      string
	FurnitureName string
	ReserveWhole  bool
	// QuotasToReserve applies to quota gifts when ReserveWhole is false.
	QuotasToReserve *int
}

// ItemResult reports one selection.
type ItemResult struct {
	Selection   Selection
	Reservation gifts.Reservation
	Err         error
}

func (r ItemResult) OK() bool { return r.Err == nil }

// Result is the outcome of a checkout. WhatsAppURL is empty when nothing was reserved.
type Result struct {
	Items       []ItemResult
	Succeeded   int
	Failed      int
	TotalValue  float64
	Message     string
	WhatsAppURL string
}

// Flow runs checkouts.
type Flow struct {
	reserver    Reserver
	number      string
	concurrency int
	log         *slog.Logger
}

func NewFlow(reserver Reserver, whatsAppNumber string, concurrency int, log *slog.Logger) *Flow {
	if whatsAppNumber == "" {
		whatsAppNumber = DefaultWhatsAppNumber
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Flow{reserver: reserver, number: whatsAppNumber, concurrency: concurrency, log: log}
}

// Checkout reserves every selection independently. One item failing does not affect
// the others; the message only lists what succeeded.
func (f *Flow) Checkout(ctx context.Context, guest Guest, items []Selection) (Result, error) {
	guest.Name = strings.TrimSpace(guest.Name)
	guest.Phone = strings.TrimSpace(guest.Phone)
	if guest.Name == "" || guest.Phone == "" {
		return Result{}, ErrGuestRequired
	}
	if len(items) == 0 {
		return Result{}, ErrEmptySelection
	}

	results := make([]ItemResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, sel := range items {
		g.Go(func() error {
			res, err := f.reserver.Reserve(gctx, models.ReservationRequest{
				GiftID:          sel.GiftID,
				ReservedBy:      guest.Name,
				Phone:           guest.Phone,
				Status:          models.StatusReserved,
				ReserveWhole:    sel.ReserveWhole,
				QuotasToReserve: sel.QuotasToReserve,
			})
			if err == nil && sel.GiftName == "" {
				sel.GiftName = res.GiftName
			}
			results[i] = ItemResult{Selection: sel, Reservation: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := Result{Items: results}
	for _, r := range results {
		if r.OK() {
			out.Succeeded++
			out.TotalValue += r.Reservation.Amount
		} else {
			out.Failed++
		}
	}
	out.TotalValue = gifts.Round2(out.TotalValue)

	f.log.Info("checkout.done", "guest", guest.Name, "succeeded", out.Succeeded, "failed", out.Failed)

	if out.Succeeded == 0 {
		return out, nil
	}
	out.Message = ComposeMessage(guest, results, out.TotalValue)
	out.WhatsAppURL = WhatsAppURL(f.number, out.Message)
	return out, nil
}

// ComposeMessage writes the confirmation text from the successful items, warning about
// the ones that could not be reserved.
func ComposeMessage(guest Guest, results []ItemResult, total float64) string {
	var ok, failed []string
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, "• "+displayName(r.Selection, r.Reservation))
			continue
		}
		ok = append(ok, itemLine(r))
	}

	var b strings.Builder
	b.WriteString("Olá! Gostaria de reservar os seguintes presentes:\n\n")
	b.WriteString(strings.Join(ok, "\n\n"))
	fmt.Fprintf(&b, "\n\n💰 Valor total estimado: %s", gifts.FormatBRL(total))
	fmt.Fprintf(&b, "\n\nMeu nome: %s\nMeu telefone: %s", guest.Name, guest.Phone)
	if len(failed) > 0 {
		b.WriteString("\n\n⚠️ Atenção: Os seguintes itens podem já estar reservados:\n")
		b.WriteString(strings.Join(failed, "\n"))
	}
	b.WriteString("\n\nPor favor, confirmem a reserva!")
	return b.String()
}

func itemLine(r ItemResult) string {
	res := r.Reservation
	name := displayName(r.Selection, res)
	if res.QuotaReservation && res.ReservedQuotas < res.QuotasTotal {
		return fmt.Sprintf("• %s\n  %d cota(s): %s", name, res.ReservedQuotas, gifts.FormatBRL(res.Amount))
	}
	return fmt.Sprintf("• %s\n  Valor: %s", name, gifts.FormatBRL(res.Amount))
}

func displayName(sel Selection, res gifts.Reservation) string {
	name := sel.GiftName
	if name == "" {
		name = res.GiftName
	}
	if name == "" {
		name = sel.GiftID
	}
	if sel.FurnitureName != "" {
		return sel.FurnitureName + " - " + name
	}
	return name
}

// WhatsAppURL builds a wa.me deep link with the message prefilled.
func WhatsAppURL(number, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digitsOnly(number) + "?text=" + text
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
