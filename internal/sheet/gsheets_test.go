package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets answers the values endpoints GoogleTable uses. Cells that look like
// numbers are returned as JSON numbers, as the API does for unformatted values.
type fakeSheets struct {
	mu      sync.Mutex
	grid    [][]string
	updates int
	writes  map[string]any
	gets    []url.Values
	input   string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		f.gets = append(f.gets, r.URL.Query())
		_, rng, _ := strings.Cut(r.URL.Path, "/values/")
		_, cells, _ := strings.Cut(rng, "!")

		var grid [][]string
		if cells == "" {
			grid = f.grid
		} else {
			first, _, _ := strings.Cut(cells, ":")
			n, _ := strconv.Atoi(first)
			if n >= 1 && n <= len(f.grid) {
				grid = [][]string{f.grid[n-1]}
			}
		}
		values := make([][]any, len(grid))
		for i, row := range grid {
			values[i] = make([]any, len(row))
			for j, c := range row {
				values[i][j] = c
				if n, err := strconv.ParseFloat(c, 64); err == nil {
					values[i][j] = n
				}
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "majorDimension": "ROWS", "values": values})

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/values:batchUpdate"):
		var body struct {
			ValueInputOption string `json:"valueInputOption"`
			Data             []struct {
				Range  string  `json:"range"`
				Values [][]any `json:"values"`
			} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		f.input = body.ValueInputOption
		for _, d := range body.Data {
			_, cell, _ := strings.Cut(d.Range, "!")
			col, row, ok := splitCell(cell)
			if !ok || row < 1 || row > len(f.grid) || len(d.Values) != 1 || len(d.Values[0]) != 1 {
				http.Error(w, "bad range", http.StatusBadRequest)
				return
			}
			for len(f.grid[row-1]) <= col {
				f.grid[row-1] = append(f.grid[row-1], "")
			}
			v := d.Values[0][0]
			f.grid[row-1][col] = fmt.Sprint(v)
			if f.writes == nil {
				f.writes = map[string]any{}
			}
			f.writes[cell] = v
		}
		f.updates++
		_ = json.NewEncoder(w).Encode(map[string]any{"totalUpdatedCells": len(body.Data)})

	default:
		http.Error(w, "unexpected call", http.StatusNotFound)
	}
}

// splitCell parses "C12" into column index 2 and row 12.
func splitCell(cell string) (int, int, bool) {
	i := strings.IndexFunc(cell, func(r rune) bool { return r >= '0' && r <= '9' })
	if i <= 0 {
		return 0, 0, false
	}
	col := 0
	for _, r := range cell[:i] {
		col = col*26 + int(r-'A'+1)
	}
	row, err := strconv.Atoi(cell[i:])
	return col - 1, row, err == nil
}

func newFakeGoogleTable(t *testing.T, grid [][]string, numeric ...string) (*GoogleTable, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{grid: grid}
	ts := httptest.NewServer(fake)
	t.Cleanup(ts.Close)

	srv, err := sheets.NewService(context.Background(),
		option.WithEndpoint(ts.URL+"/"),
		option.WithHTTPClient(ts.Client()),
	)
	require.NoError(t, err)
	return NewGoogleTableWithService(srv, "sheet-id", "Presentes", numeric...), fake
}

func TestGoogleTable_ReadAndSave(t *testing.T) {
	table, fake := newFakeGoogleTable(t, [][]string{
		{"ID", "Nome", "Status", "ReservadoPor"},
		{"g1", "Panela", "available"},
		{},
		{"g2", "Sofá", "reserved", "Ana"},
	})
	ctx := context.Background()

	header, err := table.Header(ctx)
	require.NoError(t, err)
	assert.Equal(t, Header{"ID", "Nome", "Status", "ReservadoPor"}, header)

	rows, err := table.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Number())
	assert.Equal(t, 4, rows[1].Number())
	assert.Equal(t, "", rows[0].Get("ReservadoPor"))

	rows[0].Set("Status", "reserved")
	rows[0].Set("ReservadoPor", "Bia")
	require.NoError(t, table.Save(ctx, rows[0]))

	assert.Equal(t, 1, fake.updates)
	assert.Equal(t, []string{"g1", "Panela", "reserved", "Bia"}, fake.grid[1])
	assert.Equal(t, map[string]any{"C2": "reserved", "D2": "Bia"}, fake.writes)
}

func TestGoogleTable_KeepsNumbersAndUntouchedCells(t *testing.T) {
	table, fake := newFakeGoogleTable(t, [][]string{
		{"ID", "Valor", "Status", "CotasReservadas", "Telefone"},
		{"g1", "1899.9", "available", "2", ""},
	}, "Valor", "CotasReservadas")
	ctx := context.Background()

	rows, err := table.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1899.9", rows[0].Get("Valor"))
	assert.Equal(t, "2", rows[0].Get("CotasReservadas"))

	rows[0].Set("CotasReservadas", "5")
	rows[0].Set("Telefone", "021988887777")
	require.NoError(t, table.Save(ctx, rows[0]))

	assert.Equal(t, "RAW", fake.input)
	assert.Equal(t, map[string]any{"D2": 5.0, "E2": "021988887777"}, fake.writes)
	assert.NotContains(t, fake.writes, "B2")

	require.NotEmpty(t, fake.gets)
	for _, q := range fake.gets {
		assert.Equal(t, "UNFORMATTED_VALUE", q.Get("valueRenderOption"))
		assert.Equal(t, "FORMATTED_STRING", q.Get("dateTimeRenderOption"))
	}
}

func TestGoogleTable_SaveWithoutChanges(t *testing.T) {
	table, fake := newFakeGoogleTable(t, [][]string{{"ID", "Status"}, {"g1", "available"}})

	rows, err := table.Rows(context.Background())
	require.NoError(t, err)
	require.NoError(t, table.Save(context.Background(), rows[0]))
	assert.Equal(t, 0, fake.updates)
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", ColumnLetter(0))
	assert.Equal(t, "Z", ColumnLetter(25))
	assert.Equal(t, "AA", ColumnLetter(26))
	assert.Equal(t, "AZ", ColumnLetter(51))
	assert.Equal(t, "BA", ColumnLetter(52))
}

func TestGoogleTable_SaveDetectsConcurrentEdit(t *testing.T) {
	table, fake := newFakeGoogleTable(t, [][]string{
		{"ID", "Status"},
		{"g1", "available"},
	})
	ctx := context.Background()

	rows, err := table.Rows(ctx)
	require.NoError(t, err)

	fake.mu.Lock()
	fake.grid[1] = []string{"g1", "reserved"}
	fake.mu.Unlock()

	rows[0].Set("Status", "purchased")
	err = table.Save(ctx, rows[0])
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 0, fake.updates)
}

func TestGoogleTable_SaveMissingRow(t *testing.T) {
	table, _ := newFakeGoogleTable(t, [][]string{{"ID"}})

	err := table.Save(context.Background(), NewRow(7, 0, Header{"ID"}, map[string]string{"ID": "g"}))
	require.ErrorIs(t, err, ErrRowNotFound)
}

func TestGoogleTable_EmptySheet(t *testing.T) {
	table, _ := newFakeGoogleTable(t, nil)

	_, err := table.Header(context.Background())
	require.ErrorIs(t, err, ErrNoHeader)
}

func TestNewGoogleTable_RequiresCredentials(t *testing.T) {
	_, err := NewGoogleTable(context.Background(), GoogleConfig{SpreadsheetID: "x"})
	require.Error(t, err)
}

func TestA1Range(t *testing.T) {
	assert.Equal(t, "'Presentes'!1:1", A1Range("Presentes", "1:1"))
	assert.Equal(t, "'Lista do Zé'", A1Range("Lista do Zé", ""))
	assert.Equal(t, "'Ana''s'!A5", A1Range("Ana's", "A5"))
}

func TestSameCells(t *testing.T) {
	assert.True(t, sameCells([]string{"a", "b"}, []string{"a", "b", "", " "}))
	assert.False(t, sameCells([]string{"a", "b"}, []string{"a", "c"}))
	assert.True(t, isBlank([]string{"", "  "}))
	assert.False(t, isBlank([]string{"", "x"}))
}

func TestUnescapePrivateKey(t *testing.T) {
	assert.Equal(t, "-----BEGIN\nabc\n-----END", UnescapePrivateKey(`-----BEGIN\nabc\n-----END`))
}

func TestStringify(t *testing.T) {
	out := stringify([][]interface{}{{"a", 2.5, nil, true, 21988887777.0, 3000.0}})
	assert.Equal(t, [][]string{{"a", "2.5", "", "true", "21988887777", "3000"}}, out)
}
