package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultCatalogTTL is how long a fetched model list stays served from
// cache.
const DefaultCatalogTTL = 5 * time.Minute

// ModelCatalog lists the models an OpenAI-compatible endpoint offers.
// Results are cached per endpoint and credential, and concurrent fetches
// for the same pair collapse into one upstream request.
type ModelCatalog struct {
	httpClient *http.Client
	logger     *zap.Logger
	ttl        time.Duration

	group singleflight.Group
	mu    sync.Mutex
	cache map[string]catalogEntry
}

type catalogEntry struct {
	models    []string
	fetchedAt time.Time
}

func NewModelCatalog(ttl time.Duration, logger *zap.Logger) *ModelCatalog {
	return &ModelCatalog{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
		ttl:        ttl,
		cache:      make(map[string]catalogEntry),
	}
}

// ModelsURL derives the model listing URL from a chat completions URL:
// trailing chat and completions segments drop and /models is appended.
func ModelsURL(apiURL string) string {
	base := strings.TrimRight(strings.TrimSpace(apiURL), "/")
	for _, suffix := range []string{"/chat/completions", "/completions", "/chat"} {
		if strings.HasSuffix(base, suffix) {
			base = strings.TrimSuffix(base, suffix)
			break
		}
	}
	return base + "/models"
}

// List returns the sorted model identifiers the endpoint offers.
func (c *ModelCatalog) List(ctx context.Context, apiURL, apiKey string) ([]string, error) {
	key := apiURL + "\x00" + apiKey

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && time.Since(entry.fetchedAt) < c.ttl {
		models := entry.models
		c.mu.Unlock()
		return models, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		models, err := c.fetch(ctx, apiURL, apiKey)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = catalogEntry{models: models, fetchedAt: time.Now()}
		c.mu.Unlock()
		return models, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

func (c *ModelCatalog) fetch(ctx context.Context, apiURL, apiKey string) ([]string, error) {
	url := ModelsURL(apiURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("model listing rejected",
			zap.String("url", url),
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("upstream returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding model list: %w", err)
	}

	models := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	sort.Strings(models)
	return models, nil
}
