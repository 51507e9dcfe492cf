package services

import (
	portsrepo "github.com/finbook/finbook_backend/internal/core/ports/repositories"
	portssvc "github.com/finbook/finbook_backend/internal/core/ports/services"
	"github.com/finbook/finbook_backend/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies. The aggregator and classifier are injected so
// main can pick implementations from configuration.
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	aggregator portssvc.BankAggregator,
	classifier portssvc.Classifier,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The ledger goes first; transaction CRUD and the bank sync both write
	// through it.
	ledger := NewLedgerService(repos.TransactionRepo, repos.AccountRepo)
	container.Ledger = ledger

	container.Account = NewAccountService(
		repos.AccountRepo,
		repos.TransactionRepo,
		repos.CurrencyRepo,
		repos.ReportingRepo,
	)
	container.Transaction = NewTransactionService(repos.TransactionRepo, ledger, classifier)
	container.Banking = NewBankingService(
		aggregator,
		repos.AccountRepo,
		repos.TransactionRepo,
		repos.UserRepo,
		repos.SyncJobRepo,
		ledger,
		classifier,
	)
	container.Analytics = NewAnalyticsService(repos.ReportingRepo)
	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.User = NewUserService(repos.UserRepo)
	container.Token = NewTokenService(cfg, container.User)
	container.GoogleOAuth = NewGoogleOAuthService(cfg)

	return container
}
