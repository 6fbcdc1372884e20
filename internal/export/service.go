// Package export builds counterparty statements with their receipt images.
package export

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

const noImage = "no image"

// Item is one outstanding split on a statement. Amount is positive when the
// counterparty owes the user and negative when the user owes them.
type Item struct {
	Split    *ledger.Split
	Amount   decimal.Decimal
	FilePath string
}

// Statement is the exported view of one counterparty relationship.
type Statement struct {
	CounterpartyID uuid.UUID
	Items          []Item
	Net            decimal.Decimal
}

type Service struct {
	ledger *ledger.Service
	client *http.Client
}

func NewService(ledgerSvc *ledger.Service, client *http.Client) *Service {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Service{
		ledger: ledgerSvc,
		client: client,
	}
}

// Export collects the unsettled splits between userID and counterpartyID,
// oldest first, and downloads each split image into outputDir.
func (s *Service) Export(ctx context.Context, userID, counterpartyID uuid.UUID, outputDir string) (*Statement, error) {
	detail, err := s.ledger.CounterpartyDetail(ctx, userID, counterpartyID)
	if err != nil {
		return nil, fmt.Errorf("loading counterparty detail: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	stmt := &Statement{CounterpartyID: counterpartyID}

	for _, split := range detail.OwesMe {
		if !split.IsTerminal() {
			stmt.Items = append(stmt.Items, Item{Split: split, Amount: split.Amount})
		}
	}

	for _, split := range detail.IOwe {
		if !split.IsTerminal() {
			stmt.Items = append(stmt.Items, Item{Split: split, Amount: split.Amount.Neg()})
		}
	}

	slices.SortStableFunc(stmt.Items, func(a, b Item) int {
		return a.Split.CreatedAt.Compare(b.Split.CreatedAt)
	})

	for i := range stmt.Items {
		item := &stmt.Items[i]
		stmt.Net = stmt.Net.Add(item.Amount)

		if item.Split.ImageURL == nil || *item.Split.ImageURL == "" {
			continue
		}

		path, err := s.downloadImage(ctx, item.Split, i+1, outputDir)
		if err != nil {
			return nil, fmt.Errorf("downloading image for split %s: %w", item.Split.ID, err)
		}

		item.FilePath = path
	}

	return stmt, nil
}

func (s *Service) downloadImage(ctx context.Context, split *ledger.Split, seq int, dir string) (string, error) {
	url := *split.ImageURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, url)
	}

	path := filepath.Join(dir, fileName(resp, split, seq))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

// fileName names a downloaded image NNN_YYYYMMDD_item.ext. The sequence prefix
// keeps names unique when several splits share an item description.
func fileName(resp *http.Response, split *ledger.Split, seq int) string {
	ext := ".jpg"

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
			if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
				ext = exts[0]
			}
		}
	}

	if filepath.Ext(resp.Request.URL.Path) != "" {
		ext = filepath.Ext(resp.Request.URL.Path)
	}

	safeItem := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}

		return '_'
	}, split.ItemDescription)

	return fmt.Sprintf("%03d_%s_%s%s", seq, split.CreatedAt.Format("20060102"), safeItem, ext)
}

// Body renders the statement as plain text, one line per item followed by
// the net balance.
func (st *Statement) Body() string {
	var sb strings.Builder

	for _, item := range st.Items {
		date := item.Split.CreatedAt.Format("2006-01-02")

		sign := "+"
		if item.Amount.IsNegative() {
			sign = "-"
		}

		file := noImage
		if item.FilePath != "" {
			file = filepath.Base(item.FilePath)
		}

		fmt.Fprintf(&sb, "* %s | %s | %s%s | %s\n", date, item.Split.ItemDescription, sign, item.Amount.Abs().StringFixed(2), file)
	}

	fmt.Fprintf(&sb, "Net: %s\n", st.Net.StringFixed(2))

	return sb.String()
}
