package collectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"DispersionSignal/internal/service/ratelimit"
	xhttp "DispersionSignal/pkg/http"
	"DispersionSignal/pkg/logger"
)

// restSource provides a DRY foundation for REST quote sources.
// It centralizes client construction, per-source rate capping, and
// JSON GET request handling.
type restSource struct {
	name    string
	baseURL string
	client  *xhttp.Client
	limiter *ratelimit.Limiter
	rateRPS float64
	logger  *logger.Logger
}

func newRESTSource(name, baseURL string, timeout time.Duration, rateRPS float64, limiter *ratelimit.Limiter, lgr *logger.Logger) restSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return restSource{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		limiter: limiter,
		rateRPS: rateRPS,
		logger:  lgr,
	}
}

// getJSON fetches `path` under baseURL and decodes the JSON body into dest.
// Each call consumes one token from the source's rate bucket.
func (s *restSource) getJSON(ctx context.Context, path string, query map[string][]string, headers map[string]string, dest interface{}) error {
	if s.limiter != nil && s.rateRPS > 0 {
		if err := s.limiter.Wait(ctx, s.name, s.rateRPS, s.rateRPS); err != nil {
			return fmt.Errorf("rate wait %s: %w", s.name, err)
		}
	}

	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         s.baseURL + path,
		QueryParams: query,
		Headers:     headers,
	}, dest)
	if err != nil {
		return fmt.Errorf("get %s%s: %w", s.name, path, err)
	}
	return nil
}
