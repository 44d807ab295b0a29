package catalog

import (
	"context"
	"errors"
	"log"
	"net/url"

	"PokeShop/internal/cache"
	"PokeShop/internal/metrics"

	"golang.org/x/sync/singleflight"
)

var ErrUnknownFeatured = errors.New("catalog: unknown featured list")

// forwarded lists the query parameters passed through to the upstream API.
var forwarded = []string{"q", "page", "pageSize", "orderBy", "select"}

// Service answers catalog lookups from the cache, collapsing concurrent
// misses for the same request into one upstream call.
type Service struct {
	api      *Client
	featured *Client
	cache    cache.Cache
	group    singleflight.Group
}

// NewService wires the card-data client and the featured-list client.
// featured may be nil when no featured base URL is configured.
func NewService(api, featured *Client, c cache.Cache) *Service {
	return &Service{api: api, featured: featured, cache: c}
}

func (s *Service) Cards(ctx context.Context, query url.Values) ([]byte, error) {
	return s.lookup(ctx, s.api, "/cards", filterQuery(query))
}

func (s *Service) Card(ctx context.Context, id string, query url.Values) ([]byte, error) {
	return s.lookup(ctx, s.api, "/cards/"+url.PathEscape(id), filterQuery(query))
}

func (s *Service) Sets(ctx context.Context, query url.Values) ([]byte, error) {
	return s.lookup(ctx, s.api, "/sets", filterQuery(query))
}

func (s *Service) Set(ctx context.Context, id string, query url.Values) ([]byte, error) {
	return s.lookup(ctx, s.api, "/sets/"+url.PathEscape(id), filterQuery(query))
}

// Featured returns the precomputed featured-cards or featured-sets document.
func (s *Service) Featured(ctx context.Context, name string) ([]byte, error) {
	switch name {
	case "featured-cards", "featured-sets":
	default:
		return nil, ErrUnknownFeatured
	}
	if s.featured == nil {
		return nil, ErrUpstreamUnavailable
	}
	return s.lookup(ctx, s.featured, "/cache/"+name+".json", nil)
}

// CacheSize reports the number of cached responses, or -1 if unknown.
func (s *Service) CacheSize(ctx context.Context) int {
	n, err := s.cache.Len(ctx)
	if err != nil {
		return -1
	}
	return n
}

func (s *Service) lookup(ctx context.Context, c *Client, path string, query url.Values) ([]byte, error) {
	key := c.baseURL + path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}

	if body, err := s.cache.Get(ctx, key); err == nil {
		metrics.RecordCatalogCache(true)
		return body, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		log.Printf("catalog cache get %s: %v", key, err)
	}
	metrics.RecordCatalogCache(false)

	// The shared fetch outlives any single caller; each caller stops
	// waiting when its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		body, err := c.Get(fetchCtx, path, query)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(fetchCtx, key, body); err != nil {
			log.Printf("catalog cache set %s: %v", key, err)
		}
		return body, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func filterQuery(in url.Values) url.Values {
	out := url.Values{}
	for _, k := range forwarded {
		if v := in.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}
