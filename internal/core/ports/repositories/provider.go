package repositories

// RepositoryProvider bundles every repository facade so service construction
// takes a single dependency.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	TransactionRepo TransactionRepositoryFacade
	UserRepo        UserRepositoryFacade
	CurrencyRepo    CurrencyRepositoryFacade
	SyncJobRepo     SyncJobRepositoryFacade
	ReportingRepo   ReportingRepositoryFacade
}
