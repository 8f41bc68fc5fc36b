package delivery

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/MohamedQatish/alemelbklawa-next-sub000/internal/pkg/cache"
)

// Service serves the delivery table, caching the active rows.
type Service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
}

// NewService wires the repository behind an optional cache; c may be nil.
func NewService(repo Repository, c cache.Cache, ttl time.Duration) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl}
}

// Cities returns the active delivery cities.
func (s *Service) Cities(ctx context.Context) ([]City, error) {
	var key string
	if s.cache != nil {
		key = s.cache.GenerateKey("cities", "active")
		if raw, err := s.cache.Get(ctx, key); err != nil {
			slog.WarnContext(ctx, "delivery cache read failed", "error", err)
		} else if raw != "" {
			var cached []City
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				for i := range cached {
					cached[i].Active = true
				}
				return cached, nil
			}
		}
	}

	cities, err := s.repo.ListActiveCities(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if b, err := json.Marshal(cities); err == nil {
			if err := s.cache.Set(ctx, key, string(b), s.ttl); err != nil {
				slog.WarnContext(ctx, "delivery cache write failed", "error", err)
			}
		}
	}
	return cities, nil
}

// Quote resolves the fee for a city against the live table.
func (s *Service) Quote(ctx context.Context, city string, pickup bool) (Quote, error) {
	if pickup {
		return Resolve(nil, city, true), nil
	}
	cities, err := s.Cities(ctx)
	if err != nil {
		return Quote{}, err
	}
	return Resolve(cities, city, false), nil
}
