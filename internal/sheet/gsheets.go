package sheet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// GoogleConfig identifies the spreadsheet and the service account that edits it.
type GoogleConfig struct {
	SpreadsheetID string
	SheetName     string
	ClientEmail   string
	PrivateKey    string

	// NumericColumns are written back as numbers so the sheet's own formulas keep working.
	NumericColumns []string
}

// GoogleTable reads and writes one tab of a Google spreadsheet.
//
// Cells are read unformatted. Save writes only the cells that changed, so formulas and
// formatting elsewhere in the row survive.
//
// The sheets API has no conditional write, so Save re-reads the row and compares it with
// the snapshot before updating. Two instances can still interleave between those calls.
type GoogleTable struct {
	srv     *sheets.Service
	id      string
	sheet   string
	numeric map[string]bool
}

// NewGoogleTable authenticates with the service account key.
func NewGoogleTable(ctx context.Context, cfg GoogleConfig) (*GoogleTable, error) {
	if cfg.SpreadsheetID == "" || cfg.ClientEmail == "" || cfg.PrivateKey == "" {
		return nil, errors.New("google sheets: spreadsheet id, client email and private key are required")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Presentes"
	}

	jwtCfg := &jwt.Config{
		Email:      cfg.ClientEmail,
		PrivateKey: []byte(UnescapePrivateKey(cfg.PrivateKey)),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtCfg.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("google sheets: %w", err)
	}

	return NewGoogleTableWithService(srv, cfg.SpreadsheetID, cfg.SheetName, cfg.NumericColumns...), nil
}

// NewGoogleTableWithService uses an already configured sheets client.
func NewGoogleTableWithService(srv *sheets.Service, spreadsheetID, sheetName string, numericColumns ...string) *GoogleTable {
	numeric := make(map[string]bool, len(numericColumns))
	for _, c := range numericColumns {
		numeric[c] = true
	}
	return &GoogleTable{srv: srv, id: spreadsheetID, sheet: sheetName, numeric: numeric}
}

// UnescapePrivateKey turns literal "\n" sequences from env files into newlines.
func UnescapePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

func (t *GoogleTable) Header(ctx context.Context) (Header, error) {
	values, err := t.get(ctx, A1Range(t.sheet, "1:1"))
	if err != nil {
		return nil, err
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return nil, ErrNoHeader
	}
	return Header(values[0]), nil
}

func (t *GoogleTable) Rows(ctx context.Context) ([]*Row, error) {
	values, err := t.get(ctx, A1Range(t.sheet, ""))
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNoHeader
	}

	header := Header(values[0])
	out := make([]*Row, 0, len(values)-1)
	for i, cells := range values[1:] {
		if isBlank(cells) {
			continue
		}
		out = append(out, NewRow(i+2, 0, header, FromCells(header, cells)))
	}
	return out, nil
}

func (t *GoogleTable) Save(ctx context.Context, row *Row) error {
	rowRange := A1Range(t.sheet, fmt.Sprintf("%d:%d", row.Number(), row.Number()))

	current, err := t.get(ctx, rowRange)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return fmt.Errorf("row %d: %w", row.Number(), ErrRowNotFound)
	}
	if !sameCells(current[0], row.Snapshot()) {
		return fmt.Errorf("row %d: %w", row.Number(), ErrConflict)
	}

	before, after := row.Snapshot(), row.Cells()
	var data []*sheets.ValueRange
	for i, col := range row.header {
		if before[i] == after[i] {
			continue
		}
		data = append(data, &sheets.ValueRange{
			Range:  A1Range(t.sheet, fmt.Sprintf("%s%d", ColumnLetter(i), row.Number())),
			Values: [][]interface{}{{t.cellValue(strings.TrimSpace(col), after[i])}},
		})
	}
	if len(data) == 0 {
		return nil
	}

	_, err = t.srv.Spreadsheets.Values.
		BatchUpdate(t.id, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("google sheets: update row %d: %w", row.Number(), err)
	}
	return nil
}

// cellValue sends numeric columns as JSON numbers. RAW input keeps every other cell as
// typed text, so phones and timestamps are never reinterpreted.
func (t *GoogleTable) cellValue(col, v string) interface{} {
	if t.numeric[col] {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return v
}

func (t *GoogleTable) get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := t.srv.Spreadsheets.Values.Get(t.id, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("google sheets: get %s: %w", rng, err)
	}
	return stringify(resp.Values), nil
}

// ColumnLetter converts a 0-based column index to its A1 letters: 0 is A, 26 is AA.
func ColumnLetter(i int) string {
	var b []byte
	for i++; i > 0; i = (i - 1) / 26 {
		b = append([]byte{byte('A' + (i-1)%26)}, b...)
	}
	return string(b)
}

// A1Range builds a quoted A1 reference such as 'Presentes'!A5.
func A1Range(sheet, cells string) string {
	quoted := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
	if cells == "" {
		return quoted
	}
	return quoted + "!" + cells
}

func stringify(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			switch v := v.(type) {
			case nil:
			case float64:
				out[i][j] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				out[i][j] = fmt.Sprint(v)
			}
		}
	}
	return out
}

// sameCells ignores trailing empty cells, which the API omits.
func sameCells(a, b []string) bool {
	return slices.Equal(trimTrailing(a), trimTrailing(b))
}

func trimTrailing(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	return cells[:n]
}

func isBlank(cells []string) bool {
	return len(trimTrailing(cells)) == 0
}
