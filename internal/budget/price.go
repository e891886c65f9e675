package budget

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultSpotURL = "https://api.coinbase.com/v2/prices/ETH-USD/spot"
	// Stale constant substituted when the price API is unavailable.
	fallbackUsdPerEth = 3000
)

// PriceSource tells callers whether a quote is live or the fallback
// constant, instead of silently pretending staleness is live data.
type PriceSource string

const (
	PriceLive     PriceSource = "live"
	PriceFallback PriceSource = "fallback"
)

type Quote struct {
	UsdPerEth float64
	Source    PriceSource
}

// SpotClient fetches the ETH-USD spot price, rate-limited and cached so
// every balance view doesn't hammer the upstream API.
type SpotClient struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter

	mu     sync.Mutex
	cached Quote
	hasOne bool
}

func NewSpotClient(url string) *SpotClient {
	if url == "" {
		url = defaultSpotURL
	}
	return &SpotClient{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		// One upstream hit per 10s; bursts served from cache.
		limiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
	}
}

func (c *SpotClient) Get(ctx context.Context) Quote {
	c.mu.Lock()
	if c.hasOne && !c.limiter.Allow() {
		q := c.cached
		c.mu.Unlock()
		return q
	}
	c.mu.Unlock()

	q, err := c.fetch(ctx)
	if err != nil {
		log.Printf("Warning: spot price fetch failed, using fallback: %v", err)
		c.mu.Lock()
		if c.hasOne {
			// The stale cache is better than the constant, but it is no
			// longer a live quote and must not claim to be one.
			q = c.cached
			q.Source = PriceFallback
		} else {
			q = Quote{UsdPerEth: fallbackUsdPerEth, Source: PriceFallback}
		}
		c.mu.Unlock()
		return q
	}

	c.mu.Lock()
	c.cached = q
	c.hasOne = true
	c.mu.Unlock()
	return q
}

func (c *SpotClient) fetch(ctx context.Context) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return Quote{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("spot price: %s", resp.Status)
	}

	var body struct {
		Data struct {
			Amount string `json:"amount"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Quote{}, fmt.Errorf("spot price decode: %w", err)
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(body.Data.Amount), 64)
	if err != nil || amount <= 0 {
		return Quote{}, fmt.Errorf("spot price: bad amount %q", body.Data.Amount)
	}
	return Quote{UsdPerEth: amount, Source: PriceLive}, nil
}
