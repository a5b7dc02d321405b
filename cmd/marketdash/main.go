package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"marketdash/internal/application/port"
	"marketdash/internal/application/usecase/dashboard"
	"marketdash/internal/domain"
	"marketdash/internal/infrastructure/ai"
	"marketdash/internal/infrastructure/config"
	"marketdash/internal/infrastructure/exchange"
	"marketdash/internal/infrastructure/exchange/binance"
	"marketdash/internal/infrastructure/logger"
	"marketdash/internal/infrastructure/quotes"
	"marketdash/internal/infrastructure/storage"
	"marketdash/internal/infrastructure/transport"
	"marketdash/internal/interfaces/console"

	// venue self-registration
	_ "marketdash/internal/infrastructure/exchange/bitget"
	_ "marketdash/internal/infrastructure/exchange/bybit"
	_ "marketdash/internal/infrastructure/exchange/gate"
	_ "marketdash/internal/infrastructure/exchange/kraken"
	_ "marketdash/internal/infrastructure/exchange/kucoin"
	_ "marketdash/internal/infrastructure/exchange/mexc"
	_ "marketdash/internal/infrastructure/exchange/okx"
)

func main() {
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// one fetcher chain shared by every REST source: direct first, then the
	// configured relays in order
	fetcher := transport.NewChain(&http.Client{Timeout: 10 * time.Second}, cfg.Proxy.Relays)

	var sources []port.Source
	for _, name := range cfg.EnabledExchanges() {
		factory, ok := exchange.Get(name)
		if !ok {
			log.Warn().Str("exchange", name).Msg("enabled but no source registered")
			continue
		}
		ec := cfg.Exchange(name)
		sources = append(sources, factory(exchange.Endpoints{
			RestURL:    ec.RestURL,
			FuturesURL: ec.FuturesURL,
		}, fetcher))
	}
	if cfg.Equities.Enabled {
		sources = append(sources, quotes.NewYahooSource(cfg.Equities.URL, cfg.Equities.Symbols, fetcher))
	}
	if len(sources) == 0 {
		log.Fatal().Msg("no market sources configured")
	}

	var stream port.LiquidationFeed
	if cfg.Stream.Enabled {
		stream = binance.NewLiquidationFeed(cfg.Stream.WsURL)
	}

	repo, err := storage.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	if repo == nil {
		repo = dashboard.NewNoopRepo()
	}
	defer repo.Close()

	// commentary client built here and injected; nowhere else holds it
	var commentator dashboard.Commentator
	if key := os.Getenv(cfg.AI.KeyEnv); key != "" && cfg.AI.Endpoint != "" {
		commentator = ai.New(cfg.AI.Endpoint, cfg.AI.Model, key)
	}

	quoteAssets := cfg.Symbols.QuoteAssets
	if len(quoteAssets) == 0 {
		quoteAssets = domain.DefaultQuoteAssets
	}

	svc := dashboard.NewService(dashboard.ServiceDeps{
		Sources:         sources,
		Stream:          stream,
		Repo:            repo,
		Sink:            console.NewSink(),
		Commentator:     commentator,
		Normalizer:      domain.NewNormalizer(domain.NewQuoteSet(quoteAssets)),
		RefreshEvery:    time.Duration(cfg.App.RefreshSec) * time.Second,
		CommentaryEvery: cfg.App.CommentaryEvery,
		FeedCapacity:    cfg.App.FeedCapacity,
		LogCapacity:     cfg.App.LogCapacity,
		View: dashboard.ViewOptions{
			Sort:     cfg.View.Sort,
			Order:    cfg.View.Order,
			Quote:    cfg.View.Quote,
			PageSize: cfg.View.PageSize,
		},
	})

	log.Info().
		Str("config", *configPath).
		Int("sources", len(sources)).
		Bool("stream", stream != nil).
		Bool("commentary", commentator != nil).
		Int("refresh_sec", cfg.App.RefreshSec).
		Msg("marketdash started")

	if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("dashboard service exited")
	}
}
