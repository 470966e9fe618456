package armory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roster-sync/core/identity"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Retry and backoff constants.
const (
	baseBackoff    = 500 * time.Millisecond
	maxBackoff     = 30 * time.Second
	jitterFraction = 0.25
	userAgent      = "roster-sync/1.0"
)

// API is the subset of the remote game-data API consumed by the sync engine.
// Every method returns an error wrapping ErrNotFound on a confirmed remote absence.
type API interface {
	// GuildData fetches guild metadata.
	GuildData(ctx context.Context, region, realm, name string) (*Guild, error)
	// GuildRoster fetches the current guild roster.
	GuildRoster(ctx context.Context, region, realm, name string) (*Roster, error)
	// CharacterProfile fetches the consolidated character profile.
	CharacterProfile(ctx context.Context, region, realm, name string) (*ProfileBundle, error)
	// CollectionsIndex fetches the character's collection links.
	CollectionsIndex(ctx context.Context, region, realm, name string) (*CollectionsIndex, error)
	// Follow fetches an absolute href returned by another document and decodes it into out.
	Follow(ctx context.Context, href string, out any) error
}

// Client is an HTTP client for the remote game-data API.
// It handles URL construction, authentication, retry with exponential backoff
// and error classification.
type Client struct {
	baseURL    string
	locale     string
	maxRetries int
	httpClient *http.Client
	logger     *zap.Logger

	// sleepFunc waits between retries. Tests override it to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client authenticated with the OAuth client-credentials grant.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	// The token exchange uses the same bounded client as API calls
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := creds.Client(ctx)
	httpClient.Timeout = timeout

	return New(cfg.BaseURL, cfg.Locale, cfg.MaxRetries, httpClient, logger)
}

// New creates a client around an already authenticated http.Client.
func New(baseURL, locale string, maxRetries int, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if locale == "" {
		locale = "en_US"
	}

	return &Client{
		baseURL:    baseURL,
		locale:     locale,
		maxRetries: maxRetries,
		httpClient: httpClient,
		logger:     logger,
		sleepFunc:  timeSleep,
	}
}

// GuildData implements API.
func (c *Client) GuildData(ctx context.Context, region, realm, name string) (*Guild, error) {
	var guild Guild
	path := fmt.Sprintf("/data/wow/guild/%s/%s", identity.Slug(realm), identity.Slug(name))
	if err := c.get(ctx, region, path, &guild); err != nil {
		return nil, err
	}
	return &guild, nil
}

// GuildRoster implements API.
func (c *Client) GuildRoster(ctx context.Context, region, realm, name string) (*Roster, error) {
	var roster Roster
	path := fmt.Sprintf("/data/wow/guild/%s/%s/roster", identity.Slug(realm), identity.Slug(name))
	if err := c.get(ctx, region, path, &roster); err != nil {
		return nil, err
	}
	return &roster, nil
}

// CharacterProfile implements API.
// The summary decides presence; a missing secondary document only leaves its section empty.
func (c *Client) CharacterProfile(ctx context.Context, region, realm, name string) (*ProfileBundle, error) {
	base := characterPath(realm, name)

	var bundle ProfileBundle
	if err := c.get(ctx, region, base, &bundle.Summary); err != nil {
		return nil, err
	}

	sections := []struct {
		suffix string
		dst    *json.RawMessage
	}{
		{"/equipment", &bundle.Equipment},
		{"/mythic-keystone-profile", &bundle.MythicKeystone},
		{"/professions", &bundle.Professions},
	}
	for _, s := range sections {
		var raw json.RawMessage
		err := c.get(ctx, region, base+s.suffix, &raw)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch character %s: %w", strings.TrimPrefix(s.suffix, "/"), err)
		}
		*s.dst = raw
	}

	return &bundle, nil
}

// CollectionsIndex implements API.
func (c *Client) CollectionsIndex(ctx context.Context, region, realm, name string) (*CollectionsIndex, error) {
	var index CollectionsIndex
	if err := c.get(ctx, region, characterPath(realm, name)+"/collections", &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// Follow implements API.
func (c *Client) Follow(ctx context.Context, href string, out any) error {
	u, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("invalid href %q: %w", href, err)
	}
	q := u.Query()
	if q.Get("locale") == "" {
		q.Set("locale", c.locale)
	}
	u.RawQuery = q.Encode()

	return c.do(ctx, u.String(), u.Path, out)
}

func characterPath(realm, name string) string {
	return fmt.Sprintf("/profile/wow/character/%s/%s", identity.Slug(realm), identity.Slug(name))
}

// get builds the regional URL for path and decodes the response into out.
func (c *Client) get(ctx context.Context, region, path string, out any) error {
	region = strings.ToLower(region)

	base := c.baseURL
	if strings.Contains(base, "%s") {
		base = fmt.Sprintf(base, region)
	}

	q := url.Values{}
	q.Set("namespace", "profile-"+region)
	q.Set("locale", c.locale)

	return c.do(ctx, base+path+"?"+q.Encode(), path, out)
}

// do executes a GET with retry on throttling and server errors.
func (c *Client) do(ctx context.Context, rawURL, path string, out any) error {
	var attempt int
	for {
		resp, err := c.doOnce(ctx, rawURL)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("armory: request canceled: %w", ctx.Err())
			}
			if attempt < c.maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("Retrying after network error",
					zap.String("path", path),
					zap.Int("attempt", attempt+1),
					zap.Duration("backoff", backoff),
					zap.Error(err),
				)
				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return fmt.Errorf("armory: request canceled: %w", sleepErr)
				}
				attempt++
				continue
			}
			return fmt.Errorf("armory: GET %s failed after %d retries: %w", path, attempt, err)
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			defer resp.Body.Close()
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("failed to decode %s: %w", path, err)
			}
			c.logger.Debug("Request succeeded", zap.String("path", path), zap.Int("status", resp.StatusCode))
			return nil
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if readErr != nil {
			body = []byte("(failed to read response body)")
		}

		if isRetryable(resp.StatusCode) && attempt < c.maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("Retrying after HTTP error",
				zap.String("path", path),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			if err := c.sleepFunc(ctx, backoff); err != nil {
				return fmt.Errorf("armory: request canceled: %w", err)
			}
			attempt++
			continue
		}

		return &APIError{
			StatusCode: resp.StatusCode,
			Path:       path,
			Message:    strings.TrimSpace(string(body)),
			Err:        classifyStatus(resp.StatusCode),
		}
	}
}

func (c *Client) doOnce(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// retryBackoff honours Retry-After on 429, otherwise falls back to exponential backoff.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return c.calcBackoff(attempt)
}

// calcBackoff returns exponential backoff with +/- jitter, capped at maxBackoff.
func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto randomness
	return time.Duration(backoff + jitter)
}

func timeSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
