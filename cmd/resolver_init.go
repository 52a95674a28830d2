package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/owner-resolver/internal/config"
	"github.com/sells-group/owner-resolver/internal/enrich"
	"github.com/sells-group/owner-resolver/internal/enrich/provider"
	"github.com/sells-group/owner-resolver/internal/feed"
	"github.com/sells-group/owner-resolver/internal/lookup"
	"github.com/sells-group/owner-resolver/internal/metrics"
	"github.com/sells-group/owner-resolver/internal/resilience"
	"github.com/sells-group/owner-resolver/internal/store"
	"github.com/sells-group/owner-resolver/pkg/peoplelookup"
	"github.com/sells-group/owner-resolver/pkg/socrata"
)

// resolverEnv holds the resolver and the resources it depends on.
type resolverEnv struct {
	Resolver *lookup.Resolver
	Store    store.Store // nil unless history is needed
	Registry *prometheus.Registry
}

// Close releases resources held by the environment.
func (re *resolverEnv) Close() {
	if re.Store != nil {
		_ = re.Store.Close()
	}
}

// initResolver builds the feed registry, breakers, optional enrichment and
// optional store from c. Callers should defer env.Close().
func initResolver(ctx context.Context, c *config.Config, withStore bool) (*resolverEnv, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sodaOpts := []socrata.Option{socrata.WithBaseURL(c.Feeds.BaseURL)}
	if c.Feeds.RateLimit > 0 {
		sodaOpts = append(sodaOpts, socrata.WithRateLimit(c.Feeds.RateLimit, max(c.Feeds.RateBurst, 1)))
	}
	client := socrata.NewClient(c.Feeds.AppToken, sodaOpts...)
	feeds := feed.NewSocrataRegistry(client, feed.Options{
		Datasets:        c.Feeds.Datasets,
		ContactsDataset: c.Feeds.ContactsDataset,
		Disabled:        c.Feeds.Disabled,
	})
	zap.L().Debug("feeds configured", zap.Strings("feeds", feeds.List()))

	opts := []lookup.Option{
		lookup.WithTimeout(time.Duration(c.Feeds.TimeoutSecs) * time.Second),
		lookup.WithBreakers(resilience.NewBreakers(c.Feeds.Breaker)),
		lookup.WithMetrics(m),
	}

	if c.Enrich.Enabled {
		exec, err := initEnricher(c.Enrich)
		if err != nil {
			return nil, err
		}
		opts = append(opts, lookup.WithEnricher(exec))
	}

	env := &resolverEnv{Resolver: lookup.New(feeds, opts...), Registry: reg}

	if withStore {
		st, err := initStore(ctx, c.Store)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		env.Store = st
	}
	return env, nil
}

func initEnricher(c config.EnrichConfig) (*enrich.Executor, error) {
	enrichCfg := enrich.Default()
	if c.ConfigPath != "" {
		loaded, err := enrich.LoadConfig(c.ConfigPath)
		if err != nil {
			return nil, err
		}
		enrichCfg = loaded
	}

	var plOpts []peoplelookup.Option
	if c.BaseURL != "" {
		plOpts = append(plOpts, peoplelookup.WithBaseURL(c.BaseURL))
	}
	providers := provider.NewRegistry()
	providers.Register(provider.NewPeopleLookup(peoplelookup.NewClient(c.APIKey, plOpts...), c.CostUSD))

	return enrich.NewExecutor(enrichCfg, providers), nil
}

// initStore opens the configured history store.
func initStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	switch c.Driver {
	case "sqlite":
		dsn := c.DatabaseURL
		if dsn == "" {
			dsn = "owner.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, c.DatabaseURL, &c.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
}
