package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"payment-orchestrator/internal/core/domain/entity"
	apperrors "payment-orchestrator/internal/core/errors"
	"payment-orchestrator/internal/core/usecase"
)

type TransactionHandler struct {
	sendUC *usecase.SendPaymentUseCase
	getUC  *usecase.GetTransactionUseCase
	listUC *usecase.ListTransactionsUseCase
	BaseHandler
}

type sendPaymentRequest struct {
	To       string `json:"to"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	TxnRef   string `json:"txn_ref"`
}

type sendPaymentResponse struct {
	TransactionID string `json:"txn_id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	ExternalRef   string `json:"external_ref,omitempty"`
}

func NewTransactionHandler(
	sendUC *usecase.SendPaymentUseCase,
	getUC *usecase.GetTransactionUseCase,
	listUC *usecase.ListTransactionsUseCase,
) *TransactionHandler {
	return &TransactionHandler{
		sendUC: sendUC,
		getUC:  getUC,
		listUC: listUC,
	}
}

func (h *TransactionHandler) RegisterRoutes(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	mux.Handle("POST /api/v1/transactions/send", auth(h.wrap(h.handleSend)))
	mux.Handle("GET /api/v1/transactions/{id}", auth(h.wrap(h.handleGet)))
	mux.Handle("GET /api/v1/transactions", auth(h.wrap(h.handleList)))
}

// handleSend godoc
// @Summary      Send a payment
// @Description  Debits the authenticated account and pushes the transfer through the payment rail. Replays with the same txn_ref return the original transaction.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        request body sendPaymentRequest true "Transfer data"
// @Success      201 {object} HttpResponse "Transaction admitted"
// @Success      200 {object} HttpResponse "Idempotent replay of an existing transaction"
// @Failure      400 {object} ErrorResponse "Malformed request"
// @Failure      401 {object} ErrorResponse "Missing or invalid token"
// @Security     BearerAuth
// @Router       /api/v1/transactions/send [post]
func (h *TransactionHandler) handleSend(w http.ResponseWriter, r *http.Request) error {
	payerID, ok := AccountFromContext(r.Context())
	if !ok {
		h.RespondWithError(w, r, http.StatusUnauthorized, "unauthorized", "no authenticated account")
		return nil
	}

	var req sendPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondWithError(w, r, http.StatusBadRequest, "invalid request body", err.Error())
		return nil
	}
	if req.TxnRef == "" {
		req.TxnRef = r.Header.Get("Idempotency-Key")
	}
	if req.TxnRef == "" {
		h.RespondWithError(w, r, http.StatusBadRequest, "missing parameter", entity.ErrIdempotencyKeyEmpty.Error())
		return nil
	}

	out, err := h.sendUC.Execute(r.Context(), usecase.SendPaymentInput{
		PayerID:        payerID,
		PayeeID:        req.To,
		Amount:         req.Amount,
		Currency:       req.Currency,
		IdempotencyKey: req.TxnRef,
	})
	if err != nil {
		return err
	}

	// A rejected transfer is still a created resource: the outcome lives
	// on the transaction's status and failure_reason, not the HTTP code.
	code := http.StatusCreated
	message := "transaction admitted"
	if out.Idempotent {
		code = http.StatusOK
		message = "transaction already exists"
	}
	h.RespondWithSuccess(w, code, message, sendPaymentResponse{
		TransactionID: out.TransactionID,
		Status:        out.Status,
		FailureReason: out.FailureReason,
		ExternalRef:   out.ExternalRef,
	})
	return nil
}

// handleGet godoc
// @Summary      Get a transaction
// @Description  Returns the transaction with its ledger entries.
// @Tags         transactions
// @Produce      json
// @Param        id path string true "Transaction ID"
// @Success      200 {object} HttpResponse
// @Failure      404 {object} ErrorResponse "Transaction not found"
// @Security     BearerAuth
// @Router       /api/v1/transactions/{id} [get]
func (h *TransactionHandler) handleGet(w http.ResponseWriter, r *http.Request) error {
	id := r.PathValue("id")
	if id == "" {
		h.RespondWithError(w, r, http.StatusBadRequest, "missing parameter", "transaction id is required")
		return nil
	}

	out, err := h.getUC.Execute(r.Context(), id)
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "ok", out)
	return nil
}

// handleList godoc
// @Summary      List transactions
// @Description  Lists transactions filtered by payer and status, newest first.
// @Tags         transactions
// @Produce      json
// @Param        payer_id query string false "Filter by payer account"
// @Param        status query string false "Filter by status"
// @Param        limit query int false "Page size (max 100)"
// @Param        offset query int false "Page offset"
// @Success      200 {object} HttpResponse
// @Security     BearerAuth
// @Router       /api/v1/transactions [get]
func (h *TransactionHandler) handleList(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	payerID := query.Get("payer_id")
	if payerID == "" {
		// Default to the caller's own transactions.
		payerID, _ = AccountFromContext(r.Context())
	}

	out, err := h.listUC.Execute(r.Context(), usecase.ListTransactionsInput{
		PayerID: payerID,
		Status:  query.Get("status"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return err
	}

	h.RespondWithSuccess(w, http.StatusOK, "ok", out)
	return nil
}

func (h *TransactionHandler) wrap(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
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
