package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "payment-orchestrator/internal/core/errors"
	"payment-orchestrator/internal/core/usecase"
)

type AccountHandler struct {
	createUC  *usecase.CreateAccountUseCase
	getUC     *usecase.GetAccountUseCase
	depositUC *usecase.DepositUseCase
	BaseHandler
}

type createAccountRequest struct {
	OwnerName string `json:"owner_name"`
	Currency  string `json:"currency"`
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

func NewAccountHandler(
	createUC *usecase.CreateAccountUseCase,
	getUC *usecase.GetAccountUseCase,
	depositUC *usecase.DepositUseCase,
) *AccountHandler {
	return &AccountHandler{
		createUC:  createUC,
		getUC:     getUC,
		depositUC: depositUC,
	}
}

func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	// Account creation bootstraps the API token, so it is the one
	// unauthenticated write.
	mux.Handle("POST /api/v1/accounts", h.wrap(h.handleCreate))
	mux.Handle("GET /api/v1/accounts/{id}", auth(h.wrap(h.handleGet)))
	mux.Handle("POST /api/v1/accounts/{id}/deposit", auth(h.wrap(h.handleDeposit)))
}

// handleCreate godoc
// @Summary      Create account
// @Description  Creates an account and returns its API token. The token is shown only once.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body createAccountRequest true "Account data"
// @Success      201 {object} HttpResponse "Account created"
// @Failure      400 {object} ErrorResponse "Invalid request body or validation error"
// @Router       /api/v1/accounts [post]
func (h *AccountHandler) handleCreate(w http.ResponseWriter, r *http.Request) error {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return nil
	}

	out, err := h.createUC.Execute(r.Context(), usecase.CreateAccountInput{
		OwnerName: req.OwnerName,
		Currency:  req.Currency,
	})
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusCreated, "account created", out)
	return nil
}

// handleGet godoc
// @Summary      Get account
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID"
// @Success      200 {object} HttpResponse
// @Failure      404 {object} ErrorResponse "Account not found"
// @Security     BearerAuth
// @Router       /api/v1/accounts/{id} [get]
func (h *AccountHandler) handleGet(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	if id == "" {
		h.RespondWithError(w, r, http.StatusBadRequest, "missing parameter", "account id is required")
		return nil
	}

	out, err := h.getUC.Execute(r.Context(), id)
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "ok", out)
	return nil
}

// handleDeposit godoc
// @Summary      Deposit funds
// @Description  Credits external funding into the caller's own account.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID"
// @Param        request body depositRequest true "Deposit amount"
// @Success      200 {object} HttpResponse
// @Failure      400 {object} ErrorResponse "Non-positive amount"
// @Failure      403 {object} ErrorResponse "Deposit into another account"
// @Security     BearerAuth
// @Router       /api/v1/accounts/{id}/deposit [post]
func (h *AccountHandler) handleDeposit(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	caller, _ := AccountFromContext(r.Context())
	if id != caller {
		h.RespondWithError(w, r, http.StatusForbidden, "forbidden", "token does not own this account")
		return nil
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return nil
	}

	out, err := h.depositUC.Execute(r.Context(), usecase.DepositInput{
		AccountID: id,
		Amount:    req.Amount,
	})
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "deposit credited", out)
	return nil
}

func (h *AccountHandler) wrap(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			var exc *apperrors.Exception
			if errors.As(err, &exc) {
				h.RespondWithException(w, r, exc)
				return
			}
			h.RespondWithError(w, r, http.StatusInternalServerError, "internal server error", err.Error())
		}
	}
}
