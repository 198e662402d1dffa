package providers

import (
	"github.com/samber/do/v2"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/logger"
	"github.com/lisashushakova/PresentationConfigurator/internal/media/thumbs"
	"github.com/lisashushakova/PresentationConfigurator/internal/render"
	"github.com/lisashushakova/PresentationConfigurator/internal/render/office"
)

// RenderPoolHandle wraps the renderer pool with shutdown capability.
type RenderPoolHandle struct {
	*render.Pool
}

// Shutdown implements do.Shutdownable.
func (h *RenderPoolHandle) Shutdown() error {
	return h.Close()
}

// ProvideRenderPool provides the bounded office renderer pool. Pool size
// follows the sync worker count since each in-flight deck holds at most one
// session.
func ProvideRenderPool(i do.Injector) (*RenderPoolHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	factory := office.Factory(office.Config{}, log.Logger)
	pool := render.NewPool(cfg.Sync.Workers, factory, log.Logger)

	return &RenderPoolHandle{Pool: pool}, nil
}

// ProvideComparator provides the thumbnail similarity comparator.
func ProvideComparator(i do.Injector) (*thumbs.Comparator, error) {
	return thumbs.NewComparator(), nil
}
