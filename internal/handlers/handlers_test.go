package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casamento-presentes/internal/checkout"
	"casamento-presentes/internal/gifts"
	"casamento-presentes/internal/logging"
	"casamento-presentes/internal/metrics"
	"casamento-presentes/internal/middleware"
	"casamento-presentes/internal/models"
	"casamento-presentes/internal/sheet"
)

type testServer struct {
	router http.Handler
	table  *sheet.MemoryTable
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	return newTestServerWithHeader(t, sheet.Header(models.Columns))
}

func newTestServerWithHeader(t *testing.T, header sheet.Header) testServer {
	t.Helper()

	table := sheet.NewMemoryTable(header)
	table.Append(map[string]string{
		models.ColID: "panela", models.ColName: "Jogo de panelas", models.ColValue: "450", models.ColCategory: "cozinha",
	})
	table.Append(map[string]string{
		models.ColID: "geladeira", models.ColName: "Geladeira", models.ColValue: "3000", models.ColCategory: "cozinha",
	})
	table.Append(map[string]string{
		models.ColID: "sofa", models.ColName: "Sofá", models.ColValue: "900", models.ColCategory: "sala",
		models.ColStatus: "reserved", models.ColReservedBy: "Carla", models.ColPhone: "21988887777",
	})

	log := logging.Discard()
	m := metrics.New()
	svc, err := gifts.NewService(table, gifts.WithLogger(log), gifts.WithMetrics(m))
	require.NoError(t, err)

	router := NewRouter(New(svc, checkout.NewFlow(svc, "5511988887777", 2, log), log), RouterConfig{
		Admin:   middleware.AdminAuth{Password: "secret", Log: log},
		Metrics: m.Handler(),
		Log:     log,
	})
	return testServer{router: router, table: table}
}

func (s testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListGifts_StripsReservationData(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/gifts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Fallback-Data"))
	assert.NotContains(t, rec.Body.String(), "Carla")
	assert.NotContains(t, rec.Body.String(), "21988887777")

	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, true, list[1]["isQuotaEligible"])
	assert.EqualValues(t, 300, list[1]["quotaValue"])
	assert.NotContains(t, list[0], "quotasTotal")
}

func TestListGifts_Category(t *testing.T) {
	s := newTestServer(t)

	list := decode[[]models.GiftRecord](t, s.do(t, http.MethodGet, "/api/gifts?category=SALA", ""))
	require.Len(t, list, 1)
	assert.Equal(t, "sofa", list[0].ID)
}

func TestListGifts_Fallback(t *testing.T) {
	s := newTestServer(t)
	s.table.FailReads = errors.New("sheet down")

	rec := s.do(t, http.MethodGet, "/api/gifts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Fallback-Data"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	list := decode[[]models.GiftRecord](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "bed-1", list[0].ID)
}

func TestReserve_Whole(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/gifts", `{"giftId":"panela","reservedBy":"Ana","phone":"11999990000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "reserved", body["status"])
	assert.NotEmpty(t, body["reservationId"])
	assert.NotContains(t, body, "quotaReservation")
	assert.Equal(t, "Ana", s.table.Cell(2, models.ColReservedBy))

	rec = s.do(t, http.MethodPost, "/api/gifts", `{"giftId":"panela","reservedBy":"Bia"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Presente já está reservado ou comprado", decode[errorResponse](t, rec).Error)
}

func TestReserve_Purchased(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/gifts", `{"giftId":"panela","reservedBy":"Ana","status":"purchased"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "purchased", s.table.Cell(2, models.ColStatus))
}

func TestReserve_Quotas(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/gifts", `{"giftId":"geladeira","reservedBy":"Ana","quotasToReserve":3.9}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body reserveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.QuotaReservation)
	assert.Equal(t, models.StatusPartial, body.Status)
	assert.Equal(t, 3, *body.ReservedQuotasCount)
	assert.Equal(t, 10, *body.QuotasTotal)
	assert.Equal(t, 7, *body.QuotasRemaining)
	assert.False(t, *body.IsFullyReserved)
	assert.Equal(t, "3 cotas reservadas com sucesso", body.Message)

	rec = s.do(t, http.MethodPost, "/api/gifts", `{"giftId":"geladeira","reservedBy":"Bia","quotasToReserve":8}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decode[errorResponse](t, rec)
	require.NotNil(t, errBody.MaxAvailable)
	assert.Equal(t, 7, *errBody.MaxAvailable)
	assert.Equal(t, "Quantidade de cotas indisponível. Máximo disponível: 7", errBody.Error)
}

func TestReserve_BadRequests(t *testing.T) {
	cases := map[string]struct {
		body string
		code int
	}{
		"malformed":  {`{"giftId":`, http.StatusBadRequest},
		"no name":    {`{"giftId":"panela"}`, http.StatusBadRequest},
		"trailing":   {`{"giftId":"panela","reservedBy":"Ana"} {}`, http.StatusBadRequest},
		"unknown id": {`{"giftId":"piano","reservedBy":"Ana"}`, http.StatusNotFound},
		"taken":      {`{"giftId":"sofa","reservedBy":"Ana"}`, http.StatusConflict},
		"odd status": {`{"giftId":"panela","reservedBy":"Ana","status":"whatever"}`, http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := newTestServer(t).do(t, http.MethodPost, "/api/gifts", tc.body)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestReserve_SheetUnavailable(t *testing.T) {
	s := newTestServer(t)
	s.table.FailReads = errors.New("quota exceeded")

	rec := s.do(t, http.MethodPost, "/api/gifts", `{"giftId":"panela","reservedBy":"Ana"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Erro ao reservar presente", decode[errorResponse](t, rec).Error)
}

func TestReserve_SheetWithoutQuotaColumn(t *testing.T) {
	header := slices.DeleteFunc(slices.Clone(models.Columns), func(c string) bool {
		return c == models.ColQuotasReserved
	})
	s := newTestServerWithHeader(t, sheet.Header(header))

	rec := s.do(t, http.MethodPost, "/api/gifts", `{"giftId":"geladeira","reservedBy":"Ana","quotasToReserve":2}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Planilha sem a coluna CotasReservadas; reserva por cotas indisponível", decode[errorResponse](t, rec).Error)
	assert.Equal(t, "", s.table.Cell(3, models.ColReservedBy))

	rec = s.do(t, http.MethodPost, "/api/gifts", `{"giftId":"panela","reservedBy":"Ana"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCategories(t *testing.T) {
	s := newTestServer(t)

	cats := decode[[]gifts.Category](t, s.do(t, http.MethodGet, "/api/categories", ""))
	require.Len(t, cats, 2)
	assert.Equal(t, "cozinha", cats[0].ID)
	assert.Equal(t, "sala", cats[1].ID)
}

func TestMyReservations(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/reservations", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/reservations?phone=%2B55+21+98888-7777", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.GiftRecord](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "sofa", list[0].ID)
	assert.Empty(t, list[0].Phone)
}

func TestCheckout(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/checkout", `{
		"name": "Ana", "phone": "11999990000",
		"items": [
			{"giftId": "panela"},
			{"giftId": "geladeira", "quotasToReserve": 2},
			{"giftId": "sofa"}
		]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body checkoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Succeeded)
	assert.Equal(t, 1, body.Failed)
	assert.Equal(t, 1050.0, body.TotalValue)
	assert.True(t, strings.HasPrefix(body.WhatsAppURL, "https://wa.me/5511988887777?text="))
	require.Len(t, body.Items, 3)
	assert.False(t, body.Items[2].Success)
	assert.Equal(t, "Presente já está reservado ou comprado", body.Items[2].Error)
	assert.Equal(t, 2, body.Items[1].ReservedQuotasCount)
}

func TestCheckout_NothingReserved(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/checkout", `{"name":"Ana","phone":"1199","items":[{"giftId":"sofa"}]}`)
	require.Equal(t, http.StatusConflict, rec.Code)

	body := decode[checkoutResponse](t, rec)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Error)
	assert.Empty(t, body.WhatsAppURL)
}

func TestCheckout_Validation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/checkout", `{"name":"Ana","items":[{"giftId":"panela"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/checkout", `{"name":"Ana","phone":"1199","items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/admin/gifts", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/gifts", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Carla")

	req = httptest.NewRequest(http.MethodGet, "/admin/summary", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode[gifts.Summary](t, rec)
	assert.Equal(t, 3, sum.Gifts)
	assert.Equal(t, 1, sum.Reserved)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "").Code)

	s.do(t, http.MethodPost, "/api/gifts", `{"giftId":"panela","reservedBy":"Ana"}`)
	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `presentes_reservations_total{outcome="reserved"} 1`)
}
