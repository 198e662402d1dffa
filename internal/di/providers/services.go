package providers

import (
	"github.com/samber/do/v2"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/logger"
	"github.com/lisashushakova/PresentationConfigurator/internal/media/thumbs"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote/google"
	"github.com/lisashushakova/PresentationConfigurator/internal/service"
)

// ProvideAuthService provides the OAuth login and session service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionsHandle := do.MustInvoke[*SessionsHandle](i)
	drive := do.MustInvoke[*google.Client](i)

	return service.NewAuthService(storeHandle.Store, sessionsHandle.Sessions, drive, cfg, log.Logger), nil
}

// ProvideFileService provides the folder tree and marks service.
func ProvideFileService(i do.Injector) (*service.FileService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	drive := do.MustInvoke[*google.Client](i)

	return service.NewFileService(storeHandle.Store, drive, log.Logger), nil
}

// ProvideSyncService provides the deck sync orchestrator.
func ProvideSyncService(i do.Injector) (*service.SyncService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	drive := do.MustInvoke[*google.Client](i)
	files := do.MustInvoke[*service.FileService](i)
	poolHandle := do.MustInvoke[*RenderPoolHandle](i)
	cmp := do.MustInvoke[*thumbs.Comparator](i)

	return service.NewSyncService(
		storeHandle.Store,
		drive,
		files,
		poolHandle.Pool,
		cmp,
		cfg.Sync.Workers,
		cfg.Sync.MaxSlides,
		log.Logger,
	), nil
}

// ProvideTagService provides the tag link and query service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return service.NewTagService(storeHandle.Store, log.Logger), nil
}

// ProvideSlideService provides the slide lookup and filter service.
func ProvideSlideService(i do.Injector) (*service.SlideService, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tags := do.MustInvoke[*service.TagService](i)

	return service.NewSlideService(storeHandle.Store, tags, log.Logger), nil
}

// ProvideBuildService provides the deck assembly service.
func ProvideBuildService(i do.Injector) (*service.BuildService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	drive := do.MustInvoke[*google.Client](i)
	poolHandle := do.MustInvoke[*RenderPoolHandle](i)
	syncer := do.MustInvoke[*service.SyncService](i)
	cmp := do.MustInvoke[*thumbs.Comparator](i)

	return service.NewBuildService(
		storeHandle.Store,
		drive,
		poolHandle.Pool,
		syncer,
		cmp,
		cfg,
		log.Logger,
	), nil
}
