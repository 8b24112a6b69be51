// Package di provides dependency injection configuration for the Yaba server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/yabaapp/yaba-server/internal/auth"
	"github.com/yabaapp/yaba-server/internal/config"
	"github.com/yabaapp/yaba-server/internal/di/providers"
	"github.com/yabaapp/yaba-server/internal/logger"
	"github.com/yabaapp/yaba-server/internal/query"
	"github.com/yabaapp/yaba-server/internal/service"
	"github.com/yabaapp/yaba-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideHasher)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideQueryEngine)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideTransactionService)
	do.Provide(injector, providers.ProvideLedgerService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services in dependency order. Providers are lazy,
// so this is where configuration and database errors surface.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[providers.AuthKey](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*query.Engine](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.TransactionService](injector)
	_ = do.MustInvoke[*service.LedgerService](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
