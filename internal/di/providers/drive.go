package providers

import (
	"github.com/samber/do/v2"

	"github.com/lisashushakova/PresentationConfigurator/internal/config"
	"github.com/lisashushakova/PresentationConfigurator/internal/logger"
	"github.com/lisashushakova/PresentationConfigurator/internal/remote/google"
)

// ProvideDriveClient provides the Google Drive client. The same client
// serves both the OAuth flow and file operations; per-user credentials are
// passed on each call.
func ProvideDriveClient(i do.Injector) (*google.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Drive.ClientID == "" || cfg.Drive.ClientSecret == "" {
		log.Warn("Drive OAuth credentials are not configured; login will fail")
	}

	return google.New(cfg), nil
}
