package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"spacio/internal/app/policies"
)

const SourceRemote = "remote"

var ErrEndpointMissing = errors.New("pricing: suggestion endpoint not configured")

// SuggestionClient calls the external pricing assistant behind a circuit
// breaker. When the call fails or the breaker is open it answers from Fallback.
type SuggestionClient struct {
	Client   *http.Client
	Endpoint string
	Fallback policies.PriceSuggester
	Clamps   ClampConfig
	Logger   *slog.Logger

	breaker *gobreaker.CircuitBreaker[policies.PriceSuggestion]
}

type ClientOption func(*SuggestionClient)

func WithFallback(f policies.PriceSuggester) ClientOption {
	return func(c *SuggestionClient) { c.Fallback = f }
}

func WithLogger(l *slog.Logger) ClientOption {
	return func(c *SuggestionClient) { c.Logger = l }
}

func WithClamps(cfg ClampConfig) ClientOption {
	return func(c *SuggestionClient) { c.Clamps = cfg }
}

func NewSuggestionClient(endpoint string, timeout time.Duration, opts ...ClientOption) *SuggestionClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	c := &SuggestionClient{
		Client:   &http.Client{Timeout: timeout},
		Endpoint: endpoint,
		Fallback: Heuristic{},
		Clamps:   DefaultClampConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker[policies.PriceSuggestion](gobreaker.Settings{
		Name:        "pricing-suggest",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if c.Logger != nil {
				c.Logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			}
		},
	})
	return c
}

type suggestRequest struct {
	Size    string `json:"size"`
	ZipCode string `json:"zipCode"`
	Indoor  bool   `json:"indoor"`
}

type suggestResponse struct {
	SuggestedPrice float64 `json:"suggestedPrice"`
	MinPrice       float64 `json:"minPrice"`
	MaxPrice       float64 `json:"maxPrice"`
	Explanation    string  `json:"explanation"`
}

func (c *SuggestionClient) Suggest(ctx context.Context, req policies.SuggestionRequest) (policies.PriceSuggestion, error) {
	if c.Endpoint == "" {
		return c.fallback(ctx, req, ErrEndpointMissing)
	}
	res, err := c.breaker.Execute(func() (policies.PriceSuggestion, error) {
		return c.call(ctx, req)
	})
	if err != nil {
		return c.fallback(ctx, req, err)
	}
	return res, nil
}

func (c *SuggestionClient) call(ctx context.Context, req policies.SuggestionRequest) (policies.PriceSuggestion, error) {
	var zero policies.PriceSuggestion
	body, err := json.Marshal(suggestRequest{Size: string(req.Size), ZipCode: req.ZipCode, Indoor: req.Indoor})
	if err != nil {
		return zero, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(request)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return zero, fmt.Errorf("pricing: suggestion service timeout (%s): %w", c.Endpoint, err)
		}
		return zero, fmt.Errorf("pricing: suggestion service unavailable (%s): %w", c.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return zero, fmt.Errorf("pricing: suggestion service returned status %d: %s", resp.StatusCode, string(snippet))
	}
	var out suggestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, fmt.Errorf("pricing: decode suggestion: %w", err)
	}

	suggested, clamped := applyClamps(out.SuggestedPrice, c.Clamps, req.Size)
	if clamped && c.Logger != nil {
		c.Logger.Info("price suggestion clamped", "size", req.Size, "raw", out.SuggestedPrice, "final", suggested)
	}
	return policies.PriceSuggestion{
		Suggested:   suggested,
		Min:         out.MinPrice,
		Max:         out.MaxPrice,
		Explanation: out.Explanation,
		Source:      SourceRemote,
	}, nil
}

func (c *SuggestionClient) fallback(ctx context.Context, req policies.SuggestionRequest, cause error) (policies.PriceSuggestion, error) {
	if c.Fallback == nil {
		return policies.PriceSuggestion{}, cause
	}
	if c.Logger != nil && !errors.Is(cause, ErrEndpointMissing) {
		c.Logger.Warn("price suggestion fell back to heuristic", "error", cause)
	}
	return c.Fallback.Suggest(ctx, req)
}

var _ policies.PriceSuggester = (*SuggestionClient)(nil)
