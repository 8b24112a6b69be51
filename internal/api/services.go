package api

import (
	"github.com/yabaapp/yaba-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Auth         *service.AuthService
	Transactions *service.TransactionService
	Tags         *service.TagService
	Ledger       *service.LedgerService
}
