package api

// API limits and constants.
const (
	// MaxImportSize is the largest CSV ledger accepted by the import route (10 MB).
	MaxImportSize = 10 << 20

	// ExportFilename is the attachment name for CSV exports.
	ExportFilename = "transactions.csv"
)

// Response messages shown to API clients.
const (
	msgHealthy = "You have successfully hit the Yaba API!"

	msgTransactionCreated   = "Transaction successfully created"
	msgTransactionUpdated   = "Transaction successfully updated"
	msgTransactionDeleted   = "Transaction successfully deleted"
	msgCouldNotCreate       = "Could not create transaction"
	msgCouldNotUpdate       = "Could not update transaction"
	msgCouldNotDelete       = "Could not delete transaction"
	msgCouldNotFetch        = "Could not fetch transactions"
	msgTransactionsFetched  = "Transactions successfully fetched"
	msgTransactionsImported = "Transactions successfully imported"

	msgTagSaved   = "Tag successfully saved"
	msgTagUpdated = "Tag successfully updated for transaction"
	msgTagDeleted = "Tag successfully deleted from transaction"

	msgRegistered = "Account successfully created"
	msgLoggedIn   = "Successfully logged in"
)

// Cache-Control header values.
const (
	CacheNoStore = "no-store"
)
