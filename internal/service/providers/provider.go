package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	drepo "MarinePulse/internal/domain/repository"
	xhttp "MarinePulse/pkg/http"
)

// httpFetch runs one GET against a provider endpoint and maps transport and
// status failures onto the domain error taxonomy.
func httpFetch(ctx context.Context, client *xhttp.Client, url string, headers map[string]string) ([]byte, error) {
	resp, err := client.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     url,
		Headers: headers,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", drepo.ErrTimeout, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, drepo.ErrAuthRejected)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, drepo.ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	return io.ReadAll(resp.Body)
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}

// splitArray breaks a JSON array body into its elements. A body that is not
// an array at all counts as a provider-level failure; individually bad
// elements are the normalizer's problem.
func splitArray(body []byte) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w", err)
	}
	return elems, nil
}

// now is stubbed in tests.
var now = time.Now
