package gifts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"casamento-presentes/internal/catalog"
	"casamento-presentes/internal/metrics"
	"casamento-presentes/internal/models"
	"casamento-presentes/internal/notify"
	"casamento-presentes/internal/sheet"

	"github.com/oklog/ulid/v2"
	"github.com/sethvargo/go-retry"
)

// FallbackPolicy supplies listings when the sheet cannot be read. Recall always returns
// something servable; its error only explains why the result may be degraded.
type FallbackPolicy interface {
	Name() string
	Remember(ctx context.Context, gifts []models.GiftRecord) error
	Recall(ctx context.Context) ([]models.GiftRecord, error)
}

// Service lists and reserves gifts stored in a sheet.
type Service struct {
	table    sheet.Table
	fallback FallbackPolicy
	catalog  *catalog.Catalog
	notifier notify.Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger

	locks         *keyedMutex
	maxRetries    uint64
	backoff       time.Duration
	notifyTimeout time.Duration
	now           func() time.Time
}

// Option configures the Service.
type Option func(*Service)

func WithFallback(p FallbackPolicy) Option { return func(s *Service) { s.fallback = p } }

func WithCatalog(c *catalog.Catalog) Option { return func(s *Service) { s.catalog = c } }

func WithNotifier(n notify.Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithRetries sets how many times a save rejected by a concurrent write is retried.
func WithRetries(n uint64, backoff time.Duration) Option {
	return func(s *Service) {
		s.maxRetries = n
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}

// WithNotifyTimeout bounds how long a stored reservation waits on its notification.
func WithNotifyTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.notifyTimeout = d
		}
	}
}

func NewService(table sheet.Table, opts ...Option) (*Service, error) {
	if table == nil {
		return nil, errors.New("gifts: nil table")
	}
	s := &Service{
		table:      table,
		catalog:    catalog.Default(),
		notifier:   notify.Nop{},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		locks:         newKeyedMutex(),
		maxRetries:    3,
		backoff:       25 * time.Millisecond,
		notifyTimeout: 10 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.fallback == nil {
		s.fallback = staticSeed{}
	}
	return s, nil
}

// ListResult is a listing and whether it came from fallback data.
type ListResult struct {
	Gifts    []models.GiftRecord
	Fallback bool
}

// List returns every gift, optionally filtered by category. It never fails: when the
// sheet cannot be read the fallback policy answers instead.
func (s *Service) List(ctx context.Context, category string) ListResult {
	all, err := s.load(ctx)
	if err == nil {
		if rerr := s.fallback.Remember(ctx, all); rerr != nil {
			s.log.Warn("gift.list.remember.fail", "policy", s.fallback.Name(), "err", rerr)
		}
		return ListResult{Gifts: filterCategory(all, category)}
	}

	s.log.Error("gift.list.fail", "err", err, "policy", s.fallback.Name())
	s.metrics.Fallback()

	recalled, rerr := s.fallback.Recall(ctx)
	if rerr != nil {
		s.log.Warn("gift.list.fallback.degraded", "policy", s.fallback.Name(), "err", rerr)
	}
	return ListResult{Gifts: filterCategory(recalled, category), Fallback: true}
}

// All returns every gift with reservation metadata, failing when the sheet is unreadable.
func (s *Service) All(ctx context.Context) ([]models.GiftRecord, error) {
	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) ([]models.GiftRecord, error) {
	header, err := s.table.Header(ctx)
	if err != nil {
		return nil, fmt.Errorf("load header: %w", err)
	}
	rows, err := s.table.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}

	out := make([]models.GiftRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, Project(r, header))
	}
	return out, nil
}

func filterCategory(gifts []models.GiftRecord, category string) []models.GiftRecord {
	category = strings.TrimSpace(category)
	if category == "" {
		return gifts
	}
	out := make([]models.GiftRecord, 0, len(gifts))
	for _, g := range gifts {
		if strings.EqualFold(g.Category, category) {
			out = append(out, g)
		}
	}
	return out
}

// Reserve claims a gift, or some of its quotas, for a guest.
//
// Writers of the same gift are serialized in process, and every save is conditional on
// the row being unchanged since it was read; rejected saves are retried on a fresh read.
func (s *Service) Reserve(ctx context.Context, req models.ReservationRequest) (Reservation, error) {
	req.GiftID = strings.TrimSpace(req.GiftID)
	req.ReservedBy = strings.TrimSpace(req.ReservedBy)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.GiftID == "" || req.ReservedBy == "" {
		s.metrics.Reservation(outcome(ErrInvalid))
		return Reservation{}, ErrInvalid
	}
	switch req.Status {
	case "", models.StatusReserved, models.StatusPurchased:
	default:
		s.metrics.Reservation(outcome(ErrInvalid))
		return Reservation{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, req.Status)
	}

	res, err := s.reserveLocked(ctx, req)
	s.metrics.Reservation(outcome(err))
	if err != nil {
		s.logFailure(req, err)
		return Reservation{}, err
	}

	s.metrics.QuotasReserved(res.ReservedQuotas)
	s.log.Info("gift.reserve.ok",
		"gift_id", res.GiftID,
		"reservation_id", res.ID,
		"status", res.Status,
		"quotas", res.ReservedQuotas,
		"quotas_remaining", res.QuotasRemaining,
	)

	// The reservation is stored; the guest's cancellation must not drop the message.
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()
	if nerr := s.notifier.Notify(nctx, NotificationText(res)); nerr != nil {
		s.log.Warn("gift.reserve.notify.fail", "reservation_id", res.ID, "err", nerr)
	}
	return res, nil
}

// reserveLocked holds the gift's lock for the read-apply-save cycle and its retries only.
func (s *Service) reserveLocked(ctx context.Context, req models.ReservationRequest) (Reservation, error) {
	unlock, err := s.locks.Lock(ctx, req.GiftID)
	if err != nil {
		return Reservation{}, err
	}
	defer unlock()

	receipt, err := newReceipt(s.now())
	if err != nil {
		return Reservation{}, err
	}

	var res Reservation
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.backoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := s.attempt(ctx, req, receipt)
		if errors.Is(err, sheet.ErrConflict) {
			s.metrics.StoreConflict()
			s.log.Warn("gift.reserve.write_conflict", "gift_id", req.GiftID)
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if errors.Is(err, sheet.ErrConflict) {
		return Reservation{}, fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if err != nil {
		return Reservation{}, err
	}
	return res, nil
}

func (s *Service) attempt(ctx context.Context, req models.ReservationRequest, receipt string) (Reservation, error) {
	header, err := s.table.Header(ctx)
	if err != nil {
		return Reservation{}, fmt.Errorf("load header: %w", err)
	}
	rows, err := s.table.Rows(ctx)
	if err != nil {
		return Reservation{}, fmt.Errorf("load rows: %w", err)
	}

	var row *sheet.Row
	for _, r := range rows {
		if r.Get(models.ColID) == req.GiftID {
			row = r
			break
		}
	}
	if row == nil {
		return Reservation{}, ErrNotFound
	}

	res, err := Apply(row, header, req, s.now(), receipt)
	if err != nil {
		return Reservation{}, err
	}

	if err := s.table.Save(ctx, row); err != nil {
		if errors.Is(err, sheet.ErrRowNotFound) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, fmt.Errorf("save row %d: %w", row.Number(), err)
	}
	return res, nil
}

func (s *Service) logFailure(req models.ReservationRequest, err error) {
	attrs := []any{"gift_id", req.GiftID, "err", err}
	switch {
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		s.log.Info("gift.reserve.rejected", attrs...)
	default:
		s.log.Error("gift.reserve.fail", attrs...)
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "reserved"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrMisconfigured):
		return "misconfigured"
	default:
		return "error"
	}
}

func newReceipt(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NotificationText is the message the couple receives for a reservation.
func NotificationText(r Reservation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎁 Nova reserva: %s\n", r.GiftName)
	fmt.Fprintf(&b, "👤 Convidado: %s\n", r.ReservedBy)
	phone := r.Phone
	if phone == "" {
		phone = phonePlaceholder
	}
	fmt.Fprintf(&b, "📞 Telefone: %s\n", phone)
	if r.QuotaReservation {
		fmt.Fprintf(&b, "🧩 Cotas: %d (total %d/%d, restam %d)\n", r.ReservedQuotas, r.QuotasReserved, r.QuotasTotal, r.QuotasRemaining)
	} else {
		fmt.Fprintf(&b, "📌 Status: %s\n", r.Status)
	}
	fmt.Fprintf(&b, "💰 Valor: %s\n", FormatBRL(r.Amount))
	fmt.Fprintf(&b, "\nReserva #%s", r.ID)
	return b.String()
}

// staticSeed is the fallback used when none is configured.
type staticSeed struct{}

func (staticSeed) Name() string { return "static" }

func (staticSeed) Remember(context.Context, []models.GiftRecord) error { return nil }

func (staticSeed) Recall(context.Context) ([]models.GiftRecord, error) {
	gifts := SeedGifts()
	for i := range gifts {
		gifts[i] = gifts[i].Public()
	}
	return gifts, nil
}
