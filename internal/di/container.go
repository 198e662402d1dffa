// Package di provides dependency injection configuration for the
// presentation configurator server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/di/providers"
	"github.com/lisashushakova/PresentationConfigurator/internal/logger"
	"github.com/lisashushakova/PresentationConfigurator/internal/media/thumbs"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote/google"
	"github.com/lisashushakova/PresentationConfigurator/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSessions)

	// Drive and rendering
	do.Provide(injector, providers.ProvideDriveClient)
	do.Provide(injector, providers.ProvideRenderPool)
	do.Provide(injector, providers.ProvideComparator)

	// Business services
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideFileService)
	do.Provide(injector, providers.ProvideSyncService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideSlideService)
	do.Provide(injector, providers.ProvideBuildService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SessionsHandle](injector)
	_ = do.MustInvoke[*google.Client](injector)
	_ = do.MustInvoke[*providers.RenderPoolHandle](injector)
	_ = do.MustInvoke[*thumbs.Comparator](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.FileService](injector)
	_ = do.MustInvoke[*service.SyncService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.SlideService](injector)
	_ = do.MustInvoke[*service.BuildService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
