package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	xhttp "MarinePulse/pkg/http"
)

// StormGlass polls marine weather per location. Wind arrives in m/s and
// wave height in meters.
type StormGlass struct {
	baseURL   string
	locations []string
	client    *xhttp.Client
}

func NewStormGlass(baseURL string, locations []string, client *xhttp.Client) *StormGlass {
	return &StormGlass{baseURL: baseURL, locations: locations, client: client}
}

func (p *StormGlass) Name() string          { return "stormglass" }
func (p *StormGlass) Kind() models.DataKind { return models.KindWeather }
func (p *StormGlass) Close() error          { return nil }

func (p *StormGlass) Fetch(ctx context.Context, cred *models.ProviderCredential) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/v2/point?locations=%s&params=windSpeed,waveHeight",
		p.baseURL, url.QueryEscape(strings.Join(p.locations, ",")))
	body, err := httpFetch(ctx, p.client, u, map[string]string{"Authorization": cred.Key})
	if err != nil {
		return nil, fmt.Errorf("stormglass fetch: %w", err)
	}
	return rawRecords(p.Name(), p.Kind(), body)
}

// MeteoSource is the secondary marine weather source. Wind arrives in km/h.
type MeteoSource struct {
	baseURL   string
	locations []string
	client    *xhttp.Client
}

func NewMeteoSource(baseURL string, locations []string, client *xhttp.Client) *MeteoSource {
	return &MeteoSource{baseURL: baseURL, locations: locations, client: client}
}

func (p *MeteoSource) Name() string          { return "meteosource" }
func (p *MeteoSource) Kind() models.DataKind { return models.KindWeather }
func (p *MeteoSource) Close() error          { return nil }

func (p *MeteoSource) Fetch(ctx context.Context, cred *models.ProviderCredential) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/api/v1/marine?places=%s&key=%s",
		p.baseURL, url.QueryEscape(strings.Join(p.locations, ",")), url.QueryEscape(cred.Key))
	body, err := httpFetch(ctx, p.client, u, nil)
	if err != nil {
		return nil, fmt.Errorf("meteosource fetch: %w", err)
	}
	return rawRecords(p.Name(), p.Kind(), body)
}

func rawRecords(provider string, kind models.DataKind, body []byte) ([]models.RawRecord, error) {
	elems, err := splitArray(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider, err)
	}
	fetchedAt := now()
	records := make([]models.RawRecord, 0, len(elems))
	for _, e := range elems {
		records = append(records, models.RawRecord{
			Provider:  provider,
			Kind:      kind,
			FetchedAt: fetchedAt,
			Payload:   e,
		})
	}
	return records, nil
}

var (
	_ drepo.ProviderClient = (*StormGlass)(nil)
	_ drepo.ProviderClient = (*MeteoSource)(nil)
)
