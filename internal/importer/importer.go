// Package importer reads expense entries from CSV sheets.
package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	enc "github.com/MrJamesThe3rd/tally/internal/encoding"
)

var ErrNoHeader = errors.New("no header row with debtor, item and amount columns")

// Row is one parsed data line. Line is 1-based in the original file.
type Row struct {
	Line   int
	Debtor string
	Item   string
	Amount decimal.Decimal
}

// column lists the header spellings accepted for one field.
type column []string

var (
	debtorColumn = column{"debtor", "person", "name", "người nợ", "nguoi no", "tên", "ten"}
	itemColumn   = column{"item", "description", "món", "mon", "mô tả", "mo ta", "nội dung"}
	amountColumn = column{"amount", "price", "số tiền", "so tien", "giá", "gia"}
)

func (c column) matches(cell string) bool {
	cell = strings.ToLower(strings.TrimSpace(cell))
	for _, name := range c {
		if cell == name {
			return true
		}
	}

	return false
}

type layout struct {
	debtor, item, amount int
}

// Parse reads a sheet with a header row naming the debtor, item and amount
// columns. Rows before the header are ignored. Rows whose amount cannot be
// parsed are reported in skipped instead of failing the import.
func Parse(r io.Reader) (rows []Row, skipped []int, err error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	sample, _ := br.Peek(1024)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(string(sample))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}

	lay, headerIdx, ok := detectLayout(records)
	if !ok {
		return nil, nil, ErrNoHeader
	}

	for i, record := range records[headerIdx+1:] {
		line := headerIdx + i + 2

		debtor := cellValue(record, lay.debtor)
		item := cellValue(record, lay.item)
		raw := cellValue(record, lay.amount)

		if debtor == "" && item == "" && raw == "" {
			continue
		}

		amount, err := ParseAmount(raw)
		if err != nil {
			skipped = append(skipped, line)
			continue
		}

		rows = append(rows, Row{Line: line, Debtor: debtor, Item: item, Amount: amount})
	}

	return rows, skipped, nil
}

// sniffDelimiter prefers ';' (spreadsheet exports with decimal commas) and
// falls back to ','.
func sniffDelimiter(sample string) rune {
	if strings.Contains(sample, ";") && strings.Count(sample, ";") >= strings.Count(sample, ",") {
		return ';'
	}

	return ','
}

func detectLayout(records [][]string) (layout, int, bool) {
	for rowIdx, record := range records {
		lay := layout{debtor: -1, item: -1, amount: -1}

		for i, cell := range record {
			switch {
			case debtorColumn.matches(cell):
				lay.debtor = i
			case itemColumn.matches(cell):
				lay.item = i
			case amountColumn.matches(cell):
				lay.amount = i
			}
		}

		if lay.debtor >= 0 && lay.item >= 0 && lay.amount >= 0 {
			return lay, rowIdx, true
		}
	}

	return layout{}, 0, false
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
