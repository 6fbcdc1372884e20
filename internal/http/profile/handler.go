package profile

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tally/internal/http/actor"
	"github.com/MrJamesThe3rd/tally/internal/http/respond"
	"github.com/MrJamesThe3rd/tally/internal/profile"
	"github.com/MrJamesThe3rd/tally/internal/upload"
)

type Handler struct {
	svc      *profile.Service
	uploads  *upload.Service
	validate *validator.Validate
}

func NewHandler(svc *profile.Service, uploads *upload.Service) *Handler {
	return &Handler{
		svc:      svc,
		uploads:  uploads,
		validate: validator.New(),
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/me", h.updateDisplay)
	r.Put("/me/bank", h.updateBank)
	r.Post("/me/avatar", h.updateAvatar)
}

type bankResponse struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder,omitempty"`
}

type profileResponse struct {
	ID          uuid.UUID     `json:"id"`
	DisplayName string        `json:"display_name"`
	AvatarURL   *string       `json:"avatar_url,omitempty"`
	Bank        *bankResponse `json:"bank,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   *time.Time    `json:"updated_at,omitempty"`
}

func toResponse(p *profile.Profile) profileResponse {
	resp := profileResponse{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	if p.Bank != nil {
		resp.Bank = &bankResponse{
			BankCode:      p.Bank.BankCode,
			AccountNumber: p.Bank.AccountNumber,
			AccountHolder: p.Bank.AccountHolder,
		}
	}

	return resp
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.List(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]profileResponse, len(profiles))
	for i, p := range profiles {
		resp[i] = toResponse(p)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(p))
}

type updateDisplayRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

func (h *Handler) updateDisplay(w http.ResponseWriter, r *http.Request) {
	var req updateDisplayRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.svc.UpdateDisplay(r.Context(), actor.ID(r.Context()), req.DisplayName)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(p))
}

type updateBankRequest struct {
	BankCode      string `json:"bank_code" validate:"required,max=20"`
	AccountNumber string `json:"account_number" validate:"required,max=40"`
	AccountHolder string `json:"account_holder" validate:"max=100"`
}

func (h *Handler) updateBank(w http.ResponseWriter, r *http.Request) {
	var req updateBankRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.svc.UpdateBank(r.Context(), actor.ID(r.Context()), profile.BankInfo{
		BankCode:      req.BankCode,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) updateAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	me := actor.ID(r.Context())

	res, err := h.uploads.Upload(r.Context(), upload.KindAvatar, me, header.Filename, file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	p, err := h.svc.UpdateAvatar(r.Context(), me, res.URL)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(p))
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
