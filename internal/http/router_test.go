package http_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tally/internal/auth"
	"github.com/MrJamesThe3rd/tally/internal/export"
	tallyhttp "github.com/MrJamesThe3rd/tally/internal/http"
	exportHandler "github.com/MrJamesThe3rd/tally/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/tally/internal/http/importcsv"
	ledgerHandler "github.com/MrJamesThe3rd/tally/internal/http/ledger"
	profileHandler "github.com/MrJamesThe3rd/tally/internal/http/profile"
	uploadHandler "github.com/MrJamesThe3rd/tally/internal/http/upload"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/ledger"
	"github.com/MrJamesThe3rd/tally/internal/ledger/memstore"
	"github.com/MrJamesThe3rd/tally/internal/metrics"
	"github.com/MrJamesThe3rd/tally/internal/profile"
	"github.com/MrJamesThe3rd/tally/internal/upload"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type server struct {
	handler http.Handler
	tokens  *auth.JWTManager
	alice   uuid.UUID
	bob     uuid.UUID
	carol   uuid.UUID
}

func newServer(t *testing.T) *server {
	t.Helper()

	store := memstore.New()
	tokens := auth.NewJWTManager("test-secret", time.Hour)
	uploadDir := t.TempDir()

	var (
		ledgerService  = ledger.NewService(store)
		profileService = profile.NewService(store)
		uploadService  = upload.NewService(upload.NewDiskStorage(uploadDir), "http://tally.test/uploads", 0)
		importService  = importer.NewService(profileService)
		exportService  = export.NewService(ledgerService, nil)
	)

	s := &server{tokens: tokens}

	for _, p := range []struct {
		name string
		id   *uuid.UUID
	}{{"Alice", &s.alice}, {"Bob", &s.bob}, {"Carol", &s.carol}} {
		created, err := profileService.Create(context.Background(), profile.CreateParams{DisplayName: p.name})
		require.NoError(t, err)

		*p.id = created.ID
	}

	s.handler = tallyhttp.New(tallyhttp.Handlers{
		Ledger:   ledgerHandler.NewHandler(ledgerService, true, ledger.DefaultRecentLimit),
		Profiles: profileHandler.NewHandler(profileService, uploadService),
		Import:   importHandler.NewHandler(importService, ledgerService, true),
		Uploads:  uploadHandler.NewHandler(uploadService),
		Export:   exportHandler.NewHandler(exportService),
	}, tallyhttp.Options{
		Tokens:         tokens,
		Metrics:        metrics.New(),
		UploadDir:      uploadDir,
		AllowedOrigins: []string{"http://localhost:5173"},
	})

	return s
}

func (s *server) do(t *testing.T, as uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)

		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return s.send(t, as, req)
}

func (s *server) send(t *testing.T, as uuid.UUID, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	if as != uuid.Nil {
		token, err := s.tokens.Generate(as)
		require.NoError(t, err)

		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	return rec
}

func multipartRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

type splitJSON struct {
	ID        uuid.UUID `json:"id"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	IsSettled bool      `json:"is_settled"`
}

type outcomesJSON struct {
	Outcomes []struct {
		Offsets      []json.RawMessage `json:"offsets"`
		ForwardSplit *splitJSON        `json:"forward_split"`
		Error        string            `json:"error"`
	} `json:"outcomes"`
	Failed int `json:"failed"`
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, uuid.Nil, http.MethodGet, "/api/v1/positions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ExpenseSettlementFlow(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, s.alice, http.MethodPost, "/api/v1/expenses", map[string]any{
		"description": "Lunch",
		"entries": []map[string]any{
			{"debtor_id": s.bob, "item_description": "bun cha", "amount": "50000"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[outcomesJSON](t, rec)
	require.Len(t, created.Outcomes, 1)
	require.NotNil(t, created.Outcomes[0].ForwardSplit)
	assert.Equal(t, "open", created.Outcomes[0].ForwardSplit.Status)

	splitID := created.Outcomes[0].ForwardSplit.ID
	transitionPath := "/api/v1/splits/" + splitID.String() + "/transitions"

	// Carol is not part of the split.
	rec = s.do(t, s.carol, http.MethodPost, transitionPath, map[string]string{"transition": "markPending"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Each transition belongs to one side of the split.
	for _, tc := range []struct {
		actor      uuid.UUID
		transition string
	}{
		{s.bob, "forceSettle"},
		{s.bob, "confirmPayment"},
		{s.alice, "markPending"},
	} {
		rec = s.do(t, tc.actor, http.MethodPost, transitionPath, map[string]string{"transition": tc.transition})
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.transition)
	}

	rec = s.do(t, s.bob, http.MethodPost, "/api/v1/splits/transitions", map[string]any{
		"split_ids":  []uuid.UUID{splitID},
		"transition": "forceSettle",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Confirming before the debtor marked it paid is rejected.
	rec = s.do(t, s.alice, http.MethodPost, transitionPath, map[string]string{"transition": "confirmPayment"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, s.bob, http.MethodPost, transitionPath, map[string]string{"transition": "markPending"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, s.alice, http.MethodGet, "/api/v1/requests/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	pending := decode[[]struct {
		SplitIDs []uuid.UUID `json:"split_ids"`
	}](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, []uuid.UUID{splitID}, pending[0].SplitIDs)

	rec = s.do(t, s.alice, http.MethodPost, "/api/v1/splits/transitions", map[string]any{
		"split_ids":  pending[0].SplitIDs,
		"transition": "confirmPayment",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, s.alice, http.MethodGet, "/api/v1/positions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	positions := decode[struct {
		OwedToMe []json.RawMessage `json:"owed_to_me"`
	}](t, rec)
	assert.Empty(t, positions.OwedToMe)
}

func TestRouter_NettingOffsetsReverseDebt(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, s.bob, http.MethodPost, "/api/v1/expenses?netting=false", map[string]any{
		"entries": []map[string]any{{"debtor_id": s.alice, "item_description": "coffee", "amount": 30}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, s.alice, http.MethodPost, "/api/v1/expenses/bulk", map[string]any{
		"description":      "Movie",
		"debtor_ids":       []uuid.UUID{s.bob, s.carol},
		"item_description": "ticket",
		"amount":           "45",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decode[outcomesJSON](t, rec)
	require.Len(t, res.Outcomes, 2)
	assert.Len(t, res.Outcomes[0].Offsets, 1)
	assert.Equal(t, "15", res.Outcomes[0].ForwardSplit.Amount)
	assert.Empty(t, res.Outcomes[1].Offsets)

	rec = s.do(t, s.alice, http.MethodGet, "/api/v1/counterparties/"+s.bob.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	detail := decode[struct {
		OwesMeTotal string `json:"owes_me_total"`
		IOweTotal   string `json:"i_owe_total"`
	}](t, rec)
	assert.Equal(t, "15", detail.OwesMeTotal)
	assert.Equal(t, "0", detail.IOweTotal)

	rec = s.do(t, s.alice, http.MethodGet, "/api/v1/dashboard?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	dash := decode[struct {
		Recent []json.RawMessage `json:"recent"`
	}](t, rec)
	assert.Len(t, dash.Recent, 1)
}

func TestRouter_Validation(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"EmptyEntries", http.MethodPost, "/api/v1/expenses", map[string]any{"entries": []any{}}, http.StatusBadRequest},
		{"SelfDebt", http.MethodPost, "/api/v1/expenses", map[string]any{
			"entries": []map[string]any{{"debtor_id": s.alice, "item_description": "x", "amount": "1"}},
		}, http.StatusBadRequest},
		{"UnknownTransition", http.MethodPost, "/api/v1/splits/" + uuid.NewString() + "/transitions", map[string]string{"transition": "undo"}, http.StatusBadRequest},
		{"MissingSplit", http.MethodPost, "/api/v1/splits/" + uuid.NewString() + "/transitions", map[string]string{"transition": "forceSettle"}, http.StatusNotFound},
		{"BadNettingFlag", http.MethodPost, "/api/v1/expenses?netting=maybe", map[string]any{
			"entries": []map[string]any{{"debtor_id": s.bob, "item_description": "x", "amount": "1"}},
		}, http.StatusBadRequest},
		{"SubCentAmount", http.MethodPost, "/api/v1/expenses", map[string]any{
			"entries": []map[string]any{{"debtor_id": s.bob, "item_description": "gum", "amount": "0.004"}},
		}, http.StatusBadRequest},
		{"HugeLimitIsCapped", http.MethodGet, "/api/v1/transactions/recent?limit=1000000000", nil, http.StatusOK},
		{"BadLimit", http.MethodGet, "/api/v1/transactions/recent?limit=0", nil, http.StatusBadRequest},
		{"CounterpartySelf", http.MethodGet, "/api/v1/counterparties/" + s.alice.String(), nil, http.StatusBadRequest},
		{"UnknownProfile", http.MethodGet, "/api/v1/profiles/" + uuid.NewString(), nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, s.alice, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_Profiles(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, s.bob, http.MethodPatch, "/api/v1/profiles/me", map[string]string{"display_name": "Bobby"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, s.bob, http.MethodPut, "/api/v1/profiles/me/bank", map[string]string{
		"bank_code":      "VCB",
		"account_number": "0071 0012 3456",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.send(t, s.bob, multipartRequest(t, "/api/v1/profiles/me/avatar", "me.png", pngHeader, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, s.alice, http.MethodGet, "/api/v1/profiles/"+s.bob.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[struct {
		DisplayName string  `json:"display_name"`
		AvatarURL   *string `json:"avatar_url"`
		Bank        struct {
			AccountNumber string `json:"account_number"`
		} `json:"bank"`
	}](t, rec)
	assert.Equal(t, "Bobby", got.DisplayName)
	assert.Equal(t, "007100123456", got.Bank.AccountNumber)
	require.NotNil(t, got.AvatarURL)
	assert.True(t, strings.HasPrefix(*got.AvatarURL, "http://tally.test/uploads/avatars/"+s.bob.String()+"/"))

	rec = s.do(t, s.alice, http.MethodGet, "/api/v1/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]json.RawMessage](t, rec), 3)
}

func TestRouter_ImageUpload(t *testing.T) {
	s := newServer(t)

	rec := s.send(t, s.alice, multipartRequest(t, "/api/v1/expenses/images", "receipt.png", pngHeader, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	got := decode[struct {
		URL  string `json:"url"`
		MIME string `json:"mime"`
	}](t, rec)
	assert.Equal(t, "image/png", got.MIME)

	path := strings.TrimPrefix(got.URL, "http://tally.test")
	rec = s.send(t, uuid.Nil, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	rec = s.send(t, s.alice, multipartRequest(t, "/api/v1/expenses/images", "notes.txt", []byte("hello"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ImportCSV(t *testing.T) {
	s := newServer(t)
	sheet := []byte("người nợ;món;số tiền\nBob;Phở;45.000\nCarol;Trà;10k\nBob;??;abc\n")

	rec := s.send(t, s.alice, multipartRequest(t, "/api/v1/expenses/import", "sheet.csv", sheet, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	type importJSON struct {
		Entries []struct {
			DebtorID uuid.UUID `json:"debtor_id"`
			Amount   string    `json:"amount"`
		} `json:"entries"`
		Skipped  []int `json:"skipped_lines"`
		Recorded bool  `json:"recorded"`
	}

	preview := decode[importJSON](t, rec)
	require.Len(t, preview.Entries, 2)
	assert.Equal(t, s.bob, preview.Entries[0].DebtorID)
	assert.Equal(t, "45000", preview.Entries[0].Amount)
	assert.Equal(t, []int{4}, preview.Skipped)
	assert.False(t, preview.Recorded)

	rec = s.send(t, s.alice, multipartRequest(t, "/api/v1/expenses/import", "sheet.csv", sheet, map[string]string{
		"commit":      "true",
		"description": "Dinner",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decode[importJSON](t, rec).Recorded)

	rec = s.do(t, s.alice, http.MethodGet, "/api/v1/positions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	positions := decode[struct {
		OwedToMe []json.RawMessage `json:"owed_to_me"`
	}](t, rec)
	assert.Len(t, positions.OwedToMe, 2)

	rec = s.send(t, s.alice, multipartRequest(t, "/api/v1/expenses/import", "sheet.csv", []byte("debtor;item;amount\nZed;x;1\n"), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ExportStatement(t *testing.T) {
	s := newServer(t)

	rec := s.do(t, s.alice, http.MethodPost, "/api/v1/expenses?netting=false", map[string]any{
		"entries": []map[string]any{{"debtor_id": s.bob, "item_description": "taxi", "amount": "12.5"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, s.alice, http.MethodPost, "/api/v1/counterparties/"+s.bob.String()+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "statement.txt", zr.File[0].Name)

	f, err := zr.File[0].Open()
	require.NoError(t, err)
	defer f.Close()

	body, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(body), "| taxi | +12.50 | no image")
	assert.Contains(t, string(body), "Net: 12.50")
}

func TestRouter_Metrics(t *testing.T) {
	s := newServer(t)

	s.do(t, s.alice, http.MethodGet, "/api/v1/positions", nil)

	rec := s.send(t, uuid.Nil, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tally_http_requests_total{method="GET",route="/api/v1/positions",status="200"} 1`)
}
