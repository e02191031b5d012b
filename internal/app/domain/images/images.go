// Package images resolves a best-effort image URL for a text query.
// Resolution never fails outward: any provider error falls back to a
// deterministic Unsplash source URL.
package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	serperImagesURL = "https://google.serper.dev/images"

	// ProviderUnsplash builds a source URL without any network call.
	ProviderUnsplash = "unsplash"
	// ProviderSerper queries the image search API first.
	ProviderSerper = "serper"
)

// Resolver turns an image search query into an image URL.
type Resolver interface {
	Resolve(ctx context.Context, query string) string
}

type imageResult struct {
	ImageURL string `json:"imageUrl"`
}

type serperImagesResponse struct {
	Images []imageResult `json:"images"`
}

type Client struct {
	provider   string
	apiKey     string
	imagesURL  string
	httpClient *http.Client
	timeout    time.Duration
	cache      *cache.Cache
	logger     *zap.Logger
}

func NewClient(provider, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		provider:   provider,
		apiKey:     apiKey,
		imagesURL:  serperImagesURL,
		httpClient: &http.Client{},
		timeout:    timeout,
		cache:      cache.New(30*time.Minute, time.Hour),
		logger:     logger,
	}
}

// Resolve returns an image URL for the query. The Serper path is only
// attempted when configured; a timeout or empty result set folds into
// the Unsplash fallback.
func (c *Client) Resolve(ctx context.Context, query string) string {
	if query == "" {
		query = "travel"
	}

	cacheKey := "image:" + query
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(string)
	}

	imageURL := ""
	if c.provider == ProviderSerper && c.apiKey != "" {
		resolved, err := c.searchImage(ctx, query)
		if err != nil {
			c.logger.Warn("Image search failed, using fallback",
				zap.String("query", query),
				zap.Error(err))
		} else {
			imageURL = resolved
		}
	}
	if imageURL == "" {
		imageURL = UnsplashSourceURL(query)
	}

	c.cache.Set(cacheKey, imageURL, cache.DefaultExpiration)
	return imageURL
}

func (c *Client) searchImage(ctx context.Context, query string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{"q": query, "num": 1})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.imagesURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image search returned status %d", resp.StatusCode)
	}

	var decoded serperImagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode image response: %w", err)
	}
	if len(decoded.Images) == 0 || decoded.Images[0].ImageURL == "" {
		return "", fmt.Errorf("no images found for query")
	}
	return decoded.Images[0].ImageURL, nil
}

// UnsplashSourceURL builds the deterministic fallback image URL.
func UnsplashSourceURL(query string) string {
	return fmt.Sprintf("https://source.unsplash.com/1200x800/?%s", url.QueryEscape(query))
}
