package providers

import (
	"context"
	"fmt"
	"net/url"

	"MarinePulse/internal/domain/models"
	drepo "MarinePulse/internal/domain/repository"
	xhttp "MarinePulse/pkg/http"
)

// AISHub polls the AISHub REST export for vessel positions. Speeds arrive
// in km/h, timestamps as RFC3339; the normalizer owns those conversions.
type AISHub struct {
	baseURL string
	client  *xhttp.Client
}

func NewAISHub(baseURL string, client *xhttp.Client) *AISHub {
	return &AISHub{baseURL: baseURL, client: client}
}

func (p *AISHub) Name() string          { return "aishub" }
func (p *AISHub) Kind() models.DataKind { return models.KindVesselPositions }
func (p *AISHub) Close() error          { return nil }

func (p *AISHub) Fetch(ctx context.Context, cred *models.ProviderCredential) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/ws.php?username=%s&format=1&output=json", p.baseURL, url.QueryEscape(cred.Key))
	body, err := httpFetch(ctx, p.client, u, nil)
	if err != nil {
		return nil, fmt.Errorf("aishub fetch: %w", err)
	}

	elems, err := splitArray(body)
	if err != nil {
		return nil, fmt.Errorf("aishub: %w", err)
	}

	fetchedAt := now()
	records := make([]models.RawRecord, 0, len(elems))
	for _, e := range elems {
		records = append(records, models.RawRecord{
			Provider:  p.Name(),
			Kind:      p.Kind(),
			FetchedAt: fetchedAt,
			Payload:   e,
		})
	}
	return records, nil
}

var _ drepo.ProviderClient = (*AISHub)(nil)
