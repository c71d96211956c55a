package providers

import (
	"time"

	drepo "MarinePulse/internal/domain/repository"
	"MarinePulse/internal/service/credvault"
	"MarinePulse/pkg/config"
	xhttp "MarinePulse/pkg/http"
	applogger "MarinePulse/pkg/logger"
)

// Build constructs the closed set of provider clients from configuration and
// registers each enabled credential with the vault. Providers without an API
// key are silently left out; the scheduler only ever sees enabled ones.
func Build(cfg *config.Config, vault *credvault.Vault, lgr *applogger.Logger) []drepo.ProviderClient {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Scheduler.FetchTimeout))

	type candidate struct {
		pc    config.ProviderConfig
		build func() drepo.ProviderClient
	}

	candidates := []candidate{
		{cfg.Providers.AISHub, func() drepo.ProviderClient {
			return NewAISHub(cfg.Providers.AISHub.BaseURL, client)
		}},
		{cfg.Providers.AISStream, func() drepo.ProviderClient {
			return NewAISStream(cfg.Providers.AISStream.BaseURL, 4096, lgr)
		}},
		{cfg.Providers.PortWatch, func() drepo.ProviderClient {
			return NewPortWatch(cfg.Providers.PortWatch.BaseURL, cfg.Providers.Ports, client)
		}},
		{cfg.Providers.StormGlass, func() drepo.ProviderClient {
			return NewStormGlass(cfg.Providers.StormGlass.BaseURL, cfg.Providers.Ports, client)
		}},
		{cfg.Providers.MeteoSource, func() drepo.ProviderClient {
			return NewMeteoSource(cfg.Providers.MeteoSource.BaseURL, cfg.Providers.Ports, client)
		}},
	}

	var built []drepo.ProviderClient
	for _, c := range candidates {
		if !c.pc.Enabled() {
			continue
		}
		p := c.build()
		window := c.pc.QuotaWindow
		if window <= 0 {
			window = time.Minute
		}
		vault.Register(p.Name(), c.pc.APIKey, c.pc.Quota, window)
		built = append(built, p)
		lgr.Info("provider enabled",
			applogger.String("provider", p.Name()),
			applogger.String("kind", string(p.Kind())),
			applogger.Int("quota", c.pc.Quota))
	}
	return built
}
