package gifts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"casamento-presentes/internal/models"
	"casamento-presentes/internal/sheet"
)

// SeedRows are the gifts shown when nothing else is available: an empty development
// store, or the static fallback listing.
func SeedRows() []map[string]string {
	return []map[string]string{
		{
			models.ColID:          "bed-1",
			models.ColName:        "Cama Queen Size Casal",
			models.ColDescription: "Cama em madeira maciça com cabeceira estofada",
			models.ColValue:       "1899.90",
			models.ColImage:       "https://images.unsplash.com/photo-1505693416388-ac5ce068fe85?ixlib=rb-4.0.3&auto=format&fit=crop&w=500&q=80",
			models.ColStoreLink:   "https://www.mobly.com.br/cama-queen-size-casal-madeira-macica",
			models.ColCategory:    "cama",
			models.ColStatus:      string(models.StatusAvailable),
		},
		{
			models.ColID:          "ward-1",
			models.ColName:        "Guarda-Roupa 6 Portas",
			models.ColDescription: "Guarda-roupa casal com espelho e gavetas",
			models.ColValue:       "2599.00",
			models.ColImage:       "https://images.unsplash.com/photo-1595526114035-0d45ed16cfbf?ixlib=rb-4.0.3&auto=format&fit=crop&w=500&q=80",
			models.ColStoreLink:   "https://www.mobly.com.br/guarda-roupa-6-portas-casal",
			models.ColCategory:    "guarda-roupa",
			models.ColStatus:      string(models.StatusAvailable),
		},
	}
}

// SeedGifts projects SeedRows.
func SeedGifts() []models.GiftRecord {
	header := sheet.Header(models.Columns)
	rows := SeedRows()
	out := make([]models.GiftRecord, 0, len(rows))
	for i, values := range rows {
		out = append(out, Project(sheet.NewRow(i+2, 1, header, values), header))
	}
	return out
}

// NewSeededTable returns an in-memory table holding rows.
func NewSeededTable(rows []map[string]string) *sheet.MemoryTable {
	t := sheet.NewMemoryTable(sheet.Header(models.Columns))
	for _, values := range rows {
		t.Append(values)
	}
	return t
}

// LoadSeedFile reads a JSON array of rows keyed by column name, e.g.
// [{"ID": "sofa-1", "Nome": "Sofá", "Valor": "2400"}].
func LoadSeedFile(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []map[string]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, r := range rows {
		if strings.TrimSpace(r[models.ColID]) == "" {
			return nil, fmt.Errorf("parse %s: row %d has no %s", path, i+1, models.ColID)
		}
	}
	return rows, nil
}
