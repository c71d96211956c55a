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

// PortWatch polls per-port congestion figures (vessels waiting, average
// wait) for the configured set of ports in one call per cycle.
type PortWatch struct {
	baseURL string
	ports   []string
	client  *xhttp.Client
}

func NewPortWatch(baseURL string, ports []string, client *xhttp.Client) *PortWatch {
	return &PortWatch{baseURL: baseURL, ports: ports, client: client}
}

func (p *PortWatch) Name() string          { return "portwatch" }
func (p *PortWatch) Kind() models.DataKind { return models.KindPortCongestion }
func (p *PortWatch) Close() error          { return nil }

func (p *PortWatch) Fetch(ctx context.Context, cred *models.ProviderCredential) ([]models.RawRecord, error) {
	u := fmt.Sprintf("%s/v1/congestion?ports=%s", p.baseURL, url.QueryEscape(strings.Join(p.ports, ",")))
	body, err := httpFetch(ctx, p.client, u, map[string]string{"Authorization": "Bearer " + cred.Key})
	if err != nil {
		return nil, fmt.Errorf("portwatch fetch: %w", err)
	}

	elems, err := splitArray(body)
	if err != nil {
		return nil, fmt.Errorf("portwatch: %w", err)
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

var _ drepo.ProviderClient = (*PortWatch)(nil)
