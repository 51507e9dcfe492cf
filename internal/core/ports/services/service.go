package services

// ServiceContainer holds instances of all the application services. It is the
// single entry point handlers use to reach service functionality.
type ServiceContainer struct {
	Account     AccountSvcFacade
	Transaction TransactionSvcFacade
	Ledger      LedgerSvcFacade
	Banking     BankingSvcFacade
	Analytics   AnalyticsSvcFacade
	Currency    CurrencySvcFacade
	User        UserSvcFacade
	Token       TokenSvcFacade
	GoogleOAuth GoogleOAuthSvcFacade
}
