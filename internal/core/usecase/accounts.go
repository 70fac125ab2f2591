package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"payment-orchestrator/internal/core/domain/entity"
	"payment-orchestrator/internal/core/domain/ports"
	apperrors "payment-orchestrator/internal/core/errors"
)

// TokenIssuer mints a bearer token for a freshly created account.
type TokenIssuer interface {
	Issue(ctx context.Context, accountID string) (string, error)
}

type (
	CreateAccountInput struct {
		OwnerName string
		Currency  string
	}

	CreateAccountOutput struct {
		ID       string `json:"account_id"`
		APIToken string `json:"api_token"`
	}

	CreateAccountUseCase struct {
		accounts ports.AccountStore
		tokens   TokenIssuer
		logger   *slog.Logger
	}
)

func NewCreateAccountUseCase(accounts ports.AccountStore, tokens TokenIssuer, logger *slog.Logger) *CreateAccountUseCase {
	return &CreateAccountUseCase{accounts: accounts, tokens: tokens, logger: logger}
}

func (uc *CreateAccountUseCase) Execute(ctx context.Context, input CreateAccountInput) (*CreateAccountOutput, error) {
	account, err := entity.NewAccount(input.OwnerName, input.Currency)
	if err != nil {
		return nil, apperrors.BadRequest(apperrors.WithMessage(err.Error()))
	}

	if err := uc.accounts.Create(ctx, account); err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}

	token, err := uc.tokens.Issue(ctx, account.ID)
	if err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}

	uc.logger.InfoContext(ctx, "account created", slog.String("account_id", account.ID))

	return &CreateAccountOutput{ID: account.ID, APIToken: token}, nil
}

type (
	GetAccountOutput struct {
		ID       string `json:"account_id"`
		Owner    string `json:"owner_name"`
		Balance  int64  `json:"balance"`
		Currency string `json:"currency"`
		Version  int64  `json:"version"`
	}

	GetAccountUseCase struct {
		accounts ports.AccountStore
	}
)

func NewGetAccountUseCase(accounts ports.AccountStore) *GetAccountUseCase {
	return &GetAccountUseCase{accounts: accounts}
}

func (uc *GetAccountUseCase) Execute(ctx context.Context, id string) (*GetAccountOutput, error) {
	account, err := uc.accounts.FindByID(ctx, id)
	if errors.Is(err, ports.ErrAccountNotFound) {
		return nil, apperrors.NotFound()
	}
	if err != nil {
		return nil, apperrors.Unexpected(apperrors.WithError(err))
	}
	return &GetAccountOutput{
		ID:       account.ID,
		Owner:    account.OwnerName,
		Balance:  account.Balance,
		Currency: account.Currency,
		Version:  account.Version,
	}, nil
}

type (
	DepositInput struct {
		AccountID string
		Amount    int64
	}

	DepositOutput struct {
		AccountID string `json:"account_id"`
		Balance   int64  `json:"balance"`
	}

	// DepositUseCase credits external funding into an account. Each deposit
	// is recorded as its own single-entry funding transaction so the ledger
	// stays the source of truth for every balance change.
	DepositUseCase struct {
		accounts ports.AccountStore
		logger   *slog.Logger
	}
)

func NewDepositUseCase(accounts ports.AccountStore, logger *slog.Logger) *DepositUseCase {
	return &DepositUseCase{accounts: accounts, logger: logger}
}

func (uc *DepositUseCase) Execute(ctx context.Context, input DepositInput) (*DepositOutput, error) {
	if input.Amount <= 0 {
		return nil, apperrors.BadRequest(apperrors.WithMessage(entity.ErrAmountMustBePositive.Error()))
	}

	fundingID := uuid.NewString()
	for attempt := 0; attempt < versionRetries; attempt++ {
		account, err := uc.accounts.FindByID(ctx, input.AccountID)
		if errors.Is(err, ports.ErrAccountNotFound) {
			return nil, apperrors.NotFound()
		}
		if err != nil {
			return nil, apperrors.Unexpected(apperrors.WithError(err))
		}

		_, err = uc.accounts.Credit(ctx, account.ID, input.Amount, account.Version, fundingID)
		if errors.Is(err, ports.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, apperrors.Unexpected(apperrors.WithError(err))
		}

		uc.logger.InfoContext(ctx, "deposit credited",
			slog.String("account_id", account.ID),
			slog.Int64("amount", input.Amount),
		)
		return &DepositOutput{AccountID: account.ID, Balance: account.Balance + input.Amount}, nil
	}
	return nil, apperrors.Conflict(apperrors.WithMessage("account busy, retry the deposit"))
}
