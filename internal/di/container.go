// Package di provides dependency injection configuration for the Shelfwise server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/shelfwise/shelfwise-server/internal/auth"
	"github.com/shelfwise/shelfwise-server/internal/authz"
	"github.com/shelfwise/shelfwise-server/internal/config"
	"github.com/shelfwise/shelfwise-server/internal/di/providers"
	"github.com/shelfwise/shelfwise-server/internal/logger"
	"github.com/shelfwise/shelfwise-server/internal/recommend"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// opts is handed to config.Load.
func NewContainer(opts config.LoadOptions) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, opts)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)

	// Storage and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideEnforcer)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideReviewService)
	do.Provide(injector, providers.ProvideDashboardService)
	do.Provide(injector, providers.ProvideRecommendEngine)
	do.Provide(injector, providers.ProvideAssistant)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the core services. It does not start the HTTP
// server; StartServer does.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*authz.Enforcer](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.ReviewService](injector)
	_ = do.MustInvoke[*service.DashboardService](injector)
	_ = do.MustInvoke[*recommend.Engine](injector)
	_ = do.MustInvoke[*providers.AssistantHandle](injector)

	return nil
}

// StartServer starts the HTTP server and schedules a search reindex when
// the index has drifted from the catalog.
func StartServer(injector *do.RootScope) error {
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	providers.TriggerSearchReindexIfNeeded(injector)
	return nil
}
