package usecase

import (
	"log/slog"
	"time"

	"payment-orchestrator/internal/core/domain/ports"
)

type Factory struct {
	Send          *SendPaymentUseCase
	Get           *GetTransactionUseCase
	List          *ListTransactionsUseCase
	CreateAccount *CreateAccountUseCase
	GetAccount    *GetAccountUseCase
	Deposit       *DepositUseCase
}

type FactoryDeps struct {
	Transactions ports.TransactionRepository
	Accounts     ports.AccountStore
	Ledger       ports.LedgerRepository
	Rail         ports.RailConnector
	Tokens       TokenIssuer
	MaxAttempts  int
	RetryBase    time.Duration
	Logger       *slog.Logger
}

func NewFactory(deps FactoryDeps) *Factory {
	return &Factory{
		Send: NewSendPaymentUseCase(
			deps.Transactions, deps.Accounts, deps.Ledger, deps.Rail,
			deps.MaxAttempts, deps.RetryBase, deps.Logger,
		),
		Get:           NewGetTransactionUseCase(deps.Transactions, deps.Ledger),
		List:          NewListTransactionsUseCase(deps.Transactions),
		CreateAccount: NewCreateAccountUseCase(deps.Accounts, deps.Tokens, deps.Logger),
		GetAccount:    NewGetAccountUseCase(deps.Accounts),
		Deposit:       NewDepositUseCase(deps.Accounts, deps.Logger),
	}
}
