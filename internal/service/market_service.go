package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"snipe_go/internal/domain"
)

// MarketService owns the market catalog: exchange first, local cache as fallback.
type MarketService struct {
	exchange domain.MarketDataProvider
	repo     domain.MarketRepository // optional
	logger   *slog.Logger

	mu      sync.RWMutex
	markets map[string]*domain.Market
}

// NewMarketService creates a new MarketService. repo may be nil.
func NewMarketService(exchange domain.MarketDataProvider, repo domain.MarketRepository) *MarketService {
	return &MarketService{
		exchange: exchange,
		repo:     repo,
		logger:   slog.Default().With("module", "market_service"),
		markets:  make(map[string]*domain.Market),
	}
}

// Load fetches markets from the exchange and refreshes the cache.
// When the exchange is unreachable, a non-empty cache is served instead.
func (s *MarketService) Load(ctx context.Context) (map[string]*domain.Market, error) {
	markets, err := s.exchange.LoadMarkets(ctx)
	if err == nil {
		s.store(markets)
		s.persist(markets)
		return markets, nil
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	cached, cacheErr := s.loadCached()
	if cacheErr != nil || len(cached) == 0 {
		return nil, fmt.Errorf("load markets: %w", err)
	}

	s.logger.Warn("Exchange market load failed, using cached markets",
		slog.Any("error", err),
		slog.Int("count", len(cached)),
	)
	if primer, ok := s.exchange.(domain.MarketPrimer); ok {
		primer.PrimeMarkets(cached)
	}
	s.store(cached)
	return cached, nil
}

// Market returns the loaded market for symbol
func (s *MarketService) Market(symbol string) (*domain.Market, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markets[symbol]
	return m, ok
}

// Has reports whether symbol is listed
func (s *MarketService) Has(symbol string) bool {
	_, ok := s.Market(symbol)
	return ok
}

func (s *MarketService) store(markets map[string]*domain.Market) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markets = markets
}

func (s *MarketService) persist(markets map[string]*domain.Market) {
	if s.repo == nil {
		return
	}
	list := make([]*domain.Market, 0, len(markets))
	for _, m := range markets {
		list = append(list, m)
	}
	if err := s.repo.UpsertMarkets(list); err != nil {
		// Cache write failure never blocks trading
		s.logger.Warn("Failed to cache markets", slog.Any("error", err))
	}
}

func (s *MarketService) loadCached() (map[string]*domain.Market, error) {
	if s.repo == nil {
		return nil, nil
	}
	list, err := s.repo.GetAllMarkets()
	if err != nil {
		return nil, err
	}
	markets := make(map[string]*domain.Market, len(list))
	for _, m := range list {
		markets[m.Symbol] = m
	}
	return markets, nil
}
