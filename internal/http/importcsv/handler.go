package importcsv

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/http/actor"
	"github.com/MrJamesThe3rd/tally/internal/http/respond"
	"github.com/MrJamesThe3rd/tally/internal/importer"
	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

type Handler struct {
	importSvc *importer.Service
	ledgerSvc *ledger.Service
	netting   bool
}

func NewHandler(importSvc *importer.Service, ledgerSvc *ledger.Service, netting bool) *Handler {
	return &Handler{
		importSvc: importSvc,
		ledgerSvc: ledgerSvc,
		netting:   netting,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type entryDTO struct {
	DebtorID        uuid.UUID       `json:"debtor_id"`
	ItemDescription string          `json:"item_description"`
	Amount          decimal.Decimal `json:"amount"`
	Error           string          `json:"error,omitempty"`
}

type importResponse struct {
	Entries  []entryDTO `json:"entries"`
	Skipped  []int      `json:"skipped_lines"`
	Recorded bool       `json:"recorded"`
	Failed   int        `json:"failed"`
}

// importCSV parses the uploaded sheet. Without commit=true it only previews
// the resolved entries; with it the entries are recorded as one expense paid
// by the acting user.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	commit, err := formBool(r, "commit", false)
	if err != nil {
		http.Error(w, "invalid commit flag", http.StatusBadRequest)
		return
	}

	netting, err := formBool(r, "netting", h.netting)
	if err != nil {
		http.Error(w, "invalid netting flag", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(r.Context(), file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := importResponse{
		Entries: make([]entryDTO, len(result.Entries)),
		Skipped: result.Skipped,
	}
	if resp.Skipped == nil {
		resp.Skipped = []int{}
	}

	for i, e := range result.Entries {
		resp.Entries[i] = entryDTO{DebtorID: e.DebtorID, ItemDescription: e.ItemDescription, Amount: e.Amount}
	}

	if !commit {
		respond.JSON(w, http.StatusOK, resp)
		return
	}

	payer := actor.ID(r.Context())
	description := r.FormValue("description")

	if !netting {
		if _, err := h.ledgerSvc.RecordExpense(r.Context(), payer, description, result.Entries); err != nil {
			respond.Error(w, r, err)
			return
		}

		resp.Recorded = true
		respond.JSON(w, http.StatusCreated, resp)

		return
	}

	res, err := h.ledgerSvc.RecordExpenseWithNetting(r.Context(), payer, description, result.Entries)
	if res == nil {
		respond.Error(w, r, err)
		return
	}

	// Import only returns recordable entries, so outcomes line up with them.
	for i, o := range res.Outcomes {
		if o.Err != nil && i < len(resp.Entries) {
			resp.Entries[i].Error = o.Err.Error()
		}
	}

	resp.Recorded = true
	resp.Failed = len(res.Failed())

	status := http.StatusCreated
	if resp.Failed > 0 {
		status = http.StatusMultiStatus
	}

	respond.JSON(w, status, resp)
}

func formBool(r *http.Request, key string, def bool) (bool, error) {
	s := r.FormValue(key)
	if s == "" {
		return def, nil
	}

	return strconv.ParseBool(s)
}
