package collectors

import (
	"context"
	"sort"
	"sync"

	"DispersionSignal/internal/domain/models"
	"DispersionSignal/internal/domain/service"
	"DispersionSignal/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Registry fans collection out across all configured sources. A failing
// source is logged and skipped; a round only fails when the context does.
type Registry struct {
	quotes    []service.QuoteSource
	globals   []service.GlobalSource
	sentiment service.SentimentSource
	logger    *logger.Logger
}

type RegistryOption func(*Registry)

func WithQuoteSource(s service.QuoteSource) RegistryOption {
	return func(r *Registry) {
		if s != nil {
			r.quotes = append(r.quotes, s)
		}
	}
}

func WithGlobalSource(s service.GlobalSource) RegistryOption {
	return func(r *Registry) {
		if s != nil {
			r.globals = append(r.globals, s)
		}
	}
}

func WithSentimentSource(s service.SentimentSource) RegistryOption {
	return func(r *Registry) { r.sentiment = s }
}

func NewRegistry(lgr *logger.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{logger: lgr}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// QuoteSourceNames returns the names of the registered quote sources.
func (r *Registry) QuoteSourceNames() []string {
	names := make([]string, 0, len(r.quotes))
	for _, s := range r.quotes {
		names = append(names, s.Name())
	}
	sort.Strings(names)
	return names
}

// CollectQuotes gathers observations from every quote source
// concurrently and groups them by symbol.
func (r *Registry) CollectQuotes(ctx context.Context, symbols []string) (map[string][]models.Observation, error) {
	var mu sync.Mutex
	bySymbol := make(map[string][]models.Observation, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range r.quotes {
		src := src
		g.Go(func() error {
			obs, err := src.FetchQuotes(gctx, symbols)
			if err != nil {
				r.logger.Warn("quote source failed",
					logger.String("source", src.Name()),
					logger.Error(err))
				return nil
			}
			mu.Lock()
			for _, o := range obs {
				bySymbol[o.Symbol] = append(bySymbol[o.Symbol], o)
			}
			mu.Unlock()
			r.logger.Debug("quote source done",
				logger.String("source", src.Name()),
				logger.Int("observations", len(obs)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return bySymbol, nil
}

// CollectGlobal returns the first global snapshot a source can produce,
// trying sources in registration order.
func (r *Registry) CollectGlobal(ctx context.Context) (*models.GlobalMetrics, error) {
	for _, src := range r.globals {
		m, err := src.FetchGlobal(ctx)
		if err != nil {
			r.logger.Warn("global source failed",
				logger.String("source", src.Name()),
				logger.Error(err))
			continue
		}
		return &m, nil
	}
	return nil, ctx.Err()
}

// CollectSentiment gathers community readings keyed by symbol. Returns
// an empty map when no sentiment source is configured.
func (r *Registry) CollectSentiment(ctx context.Context, symbols []string) (map[string]*models.Sentiment, error) {
	out := make(map[string]*models.Sentiment)
	if r.sentiment == nil {
		return out, nil
	}

	readings, err := r.sentiment.FetchSentiment(ctx, symbols)
	if err != nil {
		r.logger.Warn("sentiment source failed",
			logger.String("source", r.sentiment.Name()),
			logger.Error(err))
		return out, nil
	}
	for i := range readings {
		out[readings[i].Symbol] = &readings[i]
	}
	return out, nil
}
