package ledger

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/http/actor"
	"github.com/MrJamesThe3rd/tally/internal/http/respond"
	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

type Handler struct {
	svc         *ledger.Service
	validate    *validator.Validate
	netting     bool
	recentLimit int
}

// NewHandler builds the ledger handler. netting sets the default for
// POST /expenses when the request does not pass ?netting.
func NewHandler(svc *ledger.Service, netting bool, recentLimit int) *Handler {
	return &Handler{
		svc:         svc,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		netting:     netting,
		recentLimit: recentLimit,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/expenses", h.recordExpense)
	r.Post("/expenses/bulk", h.recordBulk)
	r.Post("/splits/{id}/transitions", h.transition)
	r.Post("/splits/transitions", h.transitionBatch)
	r.Get("/positions", h.positions)
	r.Get("/requests/pending", h.pendingRequests)
	r.Get("/counterparties/{id}", h.counterparty)
	r.Get("/transactions/recent", h.recentTransactions)
	r.Get("/dashboard", h.dashboard)
}

type entryRequest struct {
	DebtorID        uuid.UUID       `json:"debtor_id" validate:"required"`
	ItemDescription string          `json:"item_description" validate:"required,max=200"`
	Amount          decimal.Decimal `json:"amount"`
	ImageURL        *string         `json:"image_url,omitempty" validate:"omitempty,url"`
}

type expenseRequest struct {
	Description string         `json:"description" validate:"max=200"`
	Entries     []entryRequest `json:"entries" validate:"required,min=1,dive"`
}

type bulkRequest struct {
	Description     string          `json:"description" validate:"max=200"`
	DebtorIDs       []uuid.UUID     `json:"debtor_ids" validate:"required,min=1,dive,required"`
	ItemDescription string          `json:"item_description" validate:"required,max=200"`
	Amount          decimal.Decimal `json:"amount"`
	ImageURL        *string         `json:"image_url,omitempty" validate:"omitempty,url"`
}

func (h *Handler) recordExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !h.decode(w, r, &req) {
		return
	}

	entries := make([]ledger.Entry, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = ledger.Entry{
			DebtorID:        e.DebtorID,
			ItemDescription: e.ItemDescription,
			Amount:          e.Amount,
			ImageURL:        e.ImageURL,
		}
	}

	h.record(w, r, req.Description, entries)
}

func (h *Handler) recordBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.record(w, r, req.Description, ledger.ExpandBulk(req.DebtorIDs, req.ItemDescription, req.Amount, req.ImageURL))
}

// record runs the expense workflow for the acting user as payer. With
// netting, entries that failed are reported per outcome with 207.
func (h *Handler) record(w http.ResponseWriter, r *http.Request, description string, entries []ledger.Entry) {
	netting := h.netting
	if s := r.URL.Query().Get("netting"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			http.Error(w, "invalid netting flag", http.StatusBadRequest)
			return
		}

		netting = v
	}

	payer := actor.ID(r.Context())

	if !netting {
		res, err := h.svc.RecordExpense(r.Context(), payer, description, entries)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		respond.JSON(w, http.StatusCreated, toExpense(res))

		return
	}

	res, err := h.svc.RecordExpenseWithNetting(r.Context(), payer, description, entries)
	if res == nil {
		respond.Error(w, r, err)
		return
	}

	status := http.StatusCreated
	if err != nil {
		status = http.StatusMultiStatus
	}

	respond.JSON(w, status, toNettedExpense(res))
}

type transitionRequest struct {
	Transition string `json:"transition" validate:"required"`
}

type batchTransitionRequest struct {
	SplitIDs   []uuid.UUID `json:"split_ids" validate:"required,min=1,dive,required"`
	Transition string      `json:"transition" validate:"required"`
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req transitionRequest
	if !h.decode(w, r, &req) {
		return
	}

	t, err := ledger.ParseTransition(req.Transition)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.CheckActor(r.Context(), actor.ID(r.Context()), []uuid.UUID{id}, t); err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := h.svc.TransitionSplit(r.Context(), id, t)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTransition(res))
}

func (h *Handler) transitionBatch(w http.ResponseWriter, r *http.Request) {
	var req batchTransitionRequest
	if !h.decode(w, r, &req) {
		return
	}

	t, err := ledger.ParseTransition(req.Transition)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.CheckActor(r.Context(), actor.ID(r.Context()), req.SplitIDs, t); err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := h.svc.TransitionSplitsBatch(r.Context(), req.SplitIDs, t)
	if res == nil {
		respond.Error(w, r, err)
		return
	}

	resp := toBatch(res)
	status := http.StatusOK

	if err != nil {
		resp.Error = err.Error()
		status = respond.StatusFor(err)
	}

	respond.JSON(w, status, resp)
}

func (h *Handler) positions(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.NetPositions(r.Context(), actor.ID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPositions(res))
}

func (h *Handler) pendingRequests(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.PendingRequests(r.Context(), actor.ID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toPendingList(res))
}

func (h *Handler) counterparty(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	res, err := h.svc.CounterpartyDetail(r.Context(), actor.ID(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toCounterparty(res))
}

func (h *Handler) recentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}

	res, err := h.svc.RecentTransactions(r.Context(), actor.ID(r.Context()), limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTransactionList(res))
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Dashboard(r.Context(), actor.ID(r.Context()), limit)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, dashboardResponse{
		Positions: toPositions(res.Positions),
		Pending:   toPendingList(res.Pending),
		Recent:    toTransactionList(res.Recent),
	})
}

func (h *Handler) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return h.recentLimit, true
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return 0, false
	}

	return n, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}

	if err := h.validate.Struct(v); err != nil {
		respond.Error(w, r, err)
		return false
	}

	return true
}
