package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/tally/internal/ledger"
)

type partyResponse struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

type splitResponse struct {
	ID              uuid.UUID       `json:"id"`
	TransactionID   uuid.UUID       `json:"transaction_id"`
	DebtorID        uuid.UUID       `json:"debtor_id"`
	PayerID         uuid.UUID       `json:"payer_id,omitzero"`
	Description     string          `json:"description,omitempty"`
	ItemDescription string          `json:"item_description"`
	Amount          decimal.Decimal `json:"amount"`
	ImageURL        *string         `json:"image_url,omitempty"`
	Status          string          `json:"status"`
	IsSettled       bool            `json:"is_settled"`
	SettledAt       *time.Time      `json:"settled_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	Debtor          *partyResponse  `json:"debtor,omitempty"`
	Payer           *partyResponse  `json:"payer,omitempty"`
}

type transactionResponse struct {
	ID           uuid.UUID       `json:"id"`
	PayerID      uuid.UUID       `json:"payer_id"`
	Description  string          `json:"description"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	CreatedAt    time.Time       `json:"created_at"`
	Payer        *partyResponse  `json:"payer,omitempty"`
	Splits       []splitResponse `json:"splits,omitempty"`
	SettledCount int             `json:"settled_count"`
	TotalCount   int             `json:"total_count"`
}

type expenseResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Splits      []splitResponse     `json:"splits"`
}

type offsetResponse struct {
	ReverseSplitID     uuid.UUID       `json:"reverse_split_id"`
	Amount             decimal.Decimal `json:"amount"`
	Closed             bool            `json:"closed"`
	AuditTransactionID *uuid.UUID      `json:"audit_transaction_id,omitempty"`
}

type outcomeResponse struct {
	DebtorID        uuid.UUID        `json:"debtor_id"`
	ItemDescription string           `json:"item_description"`
	Amount          decimal.Decimal  `json:"amount"`
	Offsets         []offsetResponse `json:"offsets"`
	Remaining       decimal.Decimal  `json:"remaining"`
	ForwardSplit    *splitResponse   `json:"forward_split,omitempty"`
	Error           string           `json:"error,omitempty"`
}

type nettedExpenseResponse struct {
	Outcomes []outcomeResponse `json:"outcomes"`
	Failed   int               `json:"failed"`
}

type transitionResponse struct {
	Split   splitResponse `json:"split"`
	Changed bool          `json:"changed"`
}

type batchResponse struct {
	Applied []transitionResponse `json:"applied"`
	Skipped []uuid.UUID          `json:"skipped"`
	Error   string               `json:"error,omitempty"`
}

type positionResponse struct {
	Counterparty partyResponse   `json:"counterparty"`
	Amount       decimal.Decimal `json:"amount"`
	SplitCount   int             `json:"split_count"`
}

type positionsResponse struct {
	OwedToMe []positionResponse `json:"owed_to_me"`
	IOwe     []positionResponse `json:"i_owe"`
}

type pendingRequestResponse struct {
	Debtor   partyResponse   `json:"debtor"`
	Amount   decimal.Decimal `json:"amount"`
	SplitIDs []uuid.UUID     `json:"split_ids"`
}

type counterpartyResponse struct {
	CounterpartyID     uuid.UUID       `json:"counterparty_id"`
	OwesMe             []splitResponse `json:"owes_me"`
	IOwe               []splitResponse `json:"i_owe"`
	OwesMeTotal        decimal.Decimal `json:"owes_me_total"`
	IOweTotal          decimal.Decimal `json:"i_owe_total"`
	ConfirmAllIDs      []uuid.UUID     `json:"confirm_all_ids"`
	MarkAllPaidIDs     []uuid.UUID     `json:"mark_all_paid_ids"`
	SendAllRequestsIDs []uuid.UUID     `json:"send_all_requests_ids"`
	PendingIOweCount   int             `json:"pending_i_owe_count"`
}

type dashboardResponse struct {
	Positions positionsResponse        `json:"positions"`
	Pending   []pendingRequestResponse `json:"pending"`
	Recent    []transactionResponse    `json:"recent"`
}

func toParty(p *ledger.Party) *partyResponse {
	if p == nil {
		return nil
	}

	return &partyResponse{ID: p.ID, DisplayName: p.DisplayName, AvatarURL: p.AvatarURL}
}

func statusName(s ledger.SettlementStatus) string {
	if s == ledger.StatusOpen {
		return "open"
	}

	return string(s)
}

func toSplit(s *ledger.Split) splitResponse {
	resp := splitResponse{
		ID:              s.ID,
		TransactionID:   s.TransactionID,
		DebtorID:        s.DebtorID,
		PayerID:         s.PayerID(),
		ItemDescription: s.ItemDescription,
		Amount:          s.Amount,
		ImageURL:        s.ImageURL,
		Status:          statusName(s.Status),
		IsSettled:       s.IsSettled,
		SettledAt:       s.SettledAt,
		CreatedAt:       s.CreatedAt,
		Debtor:          toParty(s.Debtor),
	}

	if s.Transaction != nil {
		resp.Description = s.Transaction.Description
		resp.Payer = toParty(s.Transaction.Payer)
	}

	return resp
}

func toSplitList(splits []*ledger.Split) []splitResponse {
	resp := make([]splitResponse, len(splits))
	for i, s := range splits {
		resp[i] = toSplit(s)
	}

	return resp
}

func toTransaction(tx *ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		PayerID:      tx.PayerID,
		Description:  tx.Description,
		TotalAmount:  tx.TotalAmount,
		CreatedAt:    tx.CreatedAt,
		Payer:        toParty(tx.Payer),
		Splits:       toSplitList(tx.Splits),
		SettledCount: tx.SettledCount(),
		TotalCount:   len(tx.Splits),
	}
}

func toTransactionList(txs []*ledger.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toTransaction(tx)
	}

	return resp
}

func toExpense(res *ledger.ExpenseResult) expenseResponse {
	return expenseResponse{
		Transaction: toTransaction(res.Transaction),
		Splits:      toSplitList(res.Splits),
	}
}

func toOutcome(o ledger.EntryOutcome) outcomeResponse {
	resp := outcomeResponse{
		DebtorID:        o.Entry.DebtorID,
		ItemDescription: o.Entry.ItemDescription,
		Amount:          o.Entry.Amount,
		Offsets:         []offsetResponse{},
	}

	if o.Err != nil {
		resp.Error = o.Err.Error()
	}

	if o.Result == nil {
		return resp
	}

	resp.Remaining = o.Result.Remaining

	for _, off := range o.Result.Offsets {
		item := offsetResponse{
			ReverseSplitID: off.ReverseSplitID,
			Amount:         off.Amount,
			Closed:         off.Closed,
		}
		if off.AuditTransaction != nil {
			item.AuditTransactionID = &off.AuditTransaction.ID
		}

		resp.Offsets = append(resp.Offsets, item)
	}

	if o.Result.ForwardSplit != nil {
		fs := toSplit(o.Result.ForwardSplit)
		resp.ForwardSplit = &fs
	}

	return resp
}

func toNettedExpense(res *ledger.NettedExpenseResult) nettedExpenseResponse {
	resp := nettedExpenseResponse{
		Outcomes: make([]outcomeResponse, len(res.Outcomes)),
		Failed:   len(res.Failed()),
	}

	for i, o := range res.Outcomes {
		resp.Outcomes[i] = toOutcome(o)
	}

	return resp
}

func toTransition(res *ledger.TransitionResult) transitionResponse {
	return transitionResponse{Split: toSplit(res.Split), Changed: res.Changed}
}

func toBatch(res *ledger.BatchResult) batchResponse {
	resp := batchResponse{
		Applied: make([]transitionResponse, len(res.Applied)),
		Skipped: res.Skipped,
	}

	for i, a := range res.Applied {
		resp.Applied[i] = toTransition(a)
	}

	if resp.Skipped == nil {
		resp.Skipped = []uuid.UUID{}
	}

	return resp
}

func toPositionList(positions []ledger.Position) []positionResponse {
	resp := make([]positionResponse, len(positions))
	for i, p := range positions {
		resp[i] = positionResponse{
			Counterparty: *toParty(&p.Counterparty),
			Amount:       p.Amount,
			SplitCount:   p.SplitCount,
		}
	}

	return resp
}

func toPositions(p *ledger.NetPositions) positionsResponse {
	return positionsResponse{
		OwedToMe: toPositionList(p.OwedToMe),
		IOwe:     toPositionList(p.IOwe),
	}
}

func toPendingList(reqs []ledger.PendingRequest) []pendingRequestResponse {
	resp := make([]pendingRequestResponse, len(reqs))
	for i, r := range reqs {
		resp[i] = pendingRequestResponse{
			Debtor:   *toParty(&r.Debtor),
			Amount:   r.Amount,
			SplitIDs: r.SplitIDs,
		}
	}

	return resp
}

func toCounterparty(d *ledger.CounterpartyDetail) counterpartyResponse {
	return counterpartyResponse{
		CounterpartyID:     d.CounterpartyID,
		OwesMe:             toSplitList(d.OwesMe),
		IOwe:               toSplitList(d.IOwe),
		OwesMeTotal:        d.OwesMeTotal,
		IOweTotal:          d.IOweTotal,
		ConfirmAllIDs:      nonNil(d.ConfirmAllIDs),
		MarkAllPaidIDs:     nonNil(d.MarkAllPaidIDs),
		SendAllRequestsIDs: nonNil(d.SendAllRequestsIDs),
		PendingIOweCount:   d.PendingIOweCount,
	}
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}

	return ids
}
