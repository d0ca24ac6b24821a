package service

import (
	"context"
	"encoding/json"
	"time"

	perr "spotcrawl/internal/platform/errors"
	"spotcrawl/internal/platform/logger"
	dom "spotcrawl/internal/services/spotify/domain"

	"github.com/go-resty/resty/v2"
	"github.com/redis/go-redis/v9"
)

// tokenKey is the shared-storage key all processes read the bearer token from
const tokenKey = "spotify:auth:token"

// refreshMargin keeps us off tokens that are about to expire
const refreshMargin = 5 * time.Minute

// TokenConfig configures the token cache
type TokenConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string

	// StaticBearer bypasses the token endpoint entirely when set
	StaticBearer string
}

// TokenCache implements domain.TokenPort over redis-backed shared storage.
// Concurrent refreshes are tolerated: last writer wins and both tokens are valid.
type TokenCache struct {
	rdb  *redis.Client
	http *resty.Client
	cfg  TokenConfig
	log  logger.Logger
}

// NewTokenCache builds a token cache talking to the given auth endpoint
func NewTokenCache(rdb *redis.Client, cfg TokenConfig, log logger.Logger) *TokenCache {
	if cfg.AuthURL == "" {
		cfg.AuthURL = "https://accounts.spotify.com/api/token"
	}
	return &TokenCache{
		rdb:  rdb,
		http: resty.New().SetTimeout(15 * time.Second),
		cfg:  cfg,
		log:  log.With().Str("component", "spotify.token").Logger(),
	}
}

// Token implements domain.TokenPort
func (t *TokenCache) Token(ctx context.Context) (string, error) {
	if t.cfg.StaticBearer != "" {
		return t.cfg.StaticBearer, nil
	}

	if raw, err := t.rdb.Get(ctx, tokenKey).Result(); err == nil && raw != "" {
		var tok dom.Token
		if jerr := json.Unmarshal([]byte(raw), &tok); jerr == nil {
			if time.Now().Before(tok.ExpiresAt.Add(-refreshMargin)) {
				return tok.AccessToken, nil
			}
		} else {
			t.log.Warn().Err(jerr).Msg("cached token unreadable, refreshing")
		}
	} else if err != nil && err != redis.Nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "token cache read failed")
	}

	return t.refresh(ctx)
}

// refresh posts client credentials and stores the new token with a TTL that
// expires five minutes before the token itself does
func (t *TokenCache) refresh(ctx context.Context) (string, error) {
	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}

	resp, err := t.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     t.cfg.ClientID,
			"client_secret": t.cfg.ClientSecret,
		}).
		SetResult(&body).
		Post(t.cfg.AuthURL)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "token endpoint unreachable")
	}
	if resp.IsError() {
		return "", perr.Unauthorizedf("token endpoint returned %d", resp.StatusCode())
	}
	if body.AccessToken == "" {
		return "", perr.Unauthorizedf("token endpoint returned no access_token")
	}

	tok := dom.Token{
		AccessToken: body.AccessToken,
		TokenType:   body.TokenType,
		ExpiresIn:   body.ExpiresIn,
		ExpiresAt:   time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}
	ttl := time.Duration(body.ExpiresIn)*time.Second - refreshMargin
	if ttl > 0 {
		raw, _ := json.Marshal(tok)
		if err := t.rdb.Set(ctx, tokenKey, raw, ttl).Err(); err != nil {
			// the token is still usable; the next caller just refreshes again
			t.log.Warn().Err(err).Msg("failed to cache token")
		}
	}

	t.log.Info().Int("expires_in", body.ExpiresIn).Msg("refreshed bearer token")
	return tok.AccessToken, nil
}
