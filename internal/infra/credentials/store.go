// Package credentials stores third-party API tokens in the database so they
// can be rotated at runtime without a redeploy. Reads go through a short TTL
// cache; the environment still wins when a variable is set.
package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"adforge/internal/infra"
	"adforge/internal/sqlinline"

	gocache "github.com/patrickmn/go-cache"
)

const (
	ProviderGemini      = "gemini"
	ProviderSocialProxy = "social_proxy"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

type Store struct {
	sql   infra.SQLExecutor
	cache *gocache.Cache
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql, cache: gocache.New(cacheTTL, cacheCleanup)}
}

func (s *Store) GeminiAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderGemini)
}

func (s *Store) SocialProxyToken(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderSocialProxy)
}

// Token returns the stored token for a provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	if cached, ok := s.cache.Get(provider); ok {
		if token, ok := cached.(string); ok {
			return token, nil
		}
	}
	row := s.sql.QueryRow(ctx, sqlinline.QSelectProviderCredential, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	token = strings.TrimSpace(token)
	s.cache.Set(provider, token, gocache.DefaultExpiration)
	return token, nil
}

func (s *Store) SetGeminiAPIKey(ctx context.Context, key string) error {
	return s.SetToken(ctx, ProviderGemini, key)
}

func (s *Store) SetSocialProxyToken(ctx context.Context, token string) error {
	return s.SetToken(ctx, ProviderSocialProxy, token)
}

// SetToken upserts a provider token and refreshes the cache entry so the new
// value is visible immediately.
func (s *Store) SetToken(ctx context.Context, provider, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertProviderCredential, provider, token); err != nil {
		return err
	}
	s.cache.Set(provider, token, gocache.DefaultExpiration)
	return nil
}
