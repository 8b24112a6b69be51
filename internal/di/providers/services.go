package providers

import (
	"github.com/samber/do/v2"

	"github.com/yabaapp/yaba-server/internal/auth"
	"github.com/yabaapp/yaba-server/internal/config"
	"github.com/yabaapp/yaba-server/internal/logger"
	"github.com/yabaapp/yaba-server/internal/query"
	"github.com/yabaapp/yaba-server/internal/service"
	"github.com/yabaapp/yaba-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideQueryEngine provides the transaction fetch engine.
func ProvideQueryEngine(i do.Injector) (*query.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	limits := query.Limits{Default: cfg.Query.DefaultLimit, Max: cfg.Query.MaxLimit}
	return query.NewEngine(limits, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	hasher := do.MustInvoke[*auth.Hasher](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, hasher, validator, log.Logger), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, validator, log.Logger), nil
}

// ProvideTransactionService provides the transaction service.
func ProvideTransactionService(i do.Injector) (*service.TransactionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	engine := do.MustInvoke[*query.Engine](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTransactionService(storeHandle.Store, engine, validator, log.Logger), nil
}

// ProvideLedgerService provides the CSV ledger service.
func ProvideLedgerService(i do.Injector) (*service.LedgerService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tagService := do.MustInvoke[*service.TagService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLedgerService(storeHandle.Store, tagService, log.Logger), nil
}
