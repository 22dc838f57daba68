package moderation

import (
	"MapHub-Backend/internal/config"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/metrics"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client talks to the Perspective comment analyzer and the Vision SafeSearch API.
type Client struct {
	cfg     config.Moderation
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
}

// NewClient builds a client. Calls share one rate limiter and one circuit breaker.
func NewClient(cfg config.Moderation, log *zap.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "moderation",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("moderation circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		log:     log,
	}
}

// New returns a Client when both API keys are set and Disabled otherwise.
func New(cfg config.Moderation, log *zap.Logger) Moderator {
	if cfg.PerspectiveKey == "" || cfg.VisionKey == "" {
		log.Warn("moderation API keys not configured, content checks disabled")
		return Disabled{}
	}
	return NewClient(cfg, log)
}

type perspectiveRequest struct {
	Comment struct {
		Text string `json:"text"`
	} `json:"comment"`
	Languages           []string            `json:"languages,omitempty"`
	RequestedAttributes map[string]struct{} `json:"requestedAttributes"`
}

type perspectiveResponse struct {
	AttributeScores map[string]struct {
		SummaryScore struct {
			Value float64 `json:"value"`
		} `json:"summaryScore"`
	} `json:"attributeScores"`
}

// statusError carries a non-2xx answer from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("moderation api returned %d: %s", e.code, e.body)
}

func (c *Client) ScoreToxicity(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}

	start := time.Now()
	defer func() { metrics.ModerationLatency.WithLabelValues("text").Observe(time.Since(start).Seconds()) }()

	req := perspectiveRequest{RequestedAttributes: map[string]struct{}{"TOXICITY": {}}}
	req.Comment.Text = text

	body, err := c.post(ctx, c.cfg.PerspectiveURL, c.cfg.PerspectiveKey, req)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusBadRequest && strings.Contains(se.body, "language") {
		// Language detection failed, retry with an explicit language.
		req.Languages = []string{"en"}
		body, err = c.post(ctx, c.cfg.PerspectiveURL, c.cfg.PerspectiveKey, req)
	}
	if err != nil {
		metrics.ModerationChecksTotal.WithLabelValues("text", "error").Inc()
		c.log.Error("toxicity check failed", zap.Error(err))
		return 0, domain.Dependency("content moderation unavailable", err)
	}

	var resp perspectiveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		metrics.ModerationChecksTotal.WithLabelValues("text", "error").Inc()
		return 0, domain.Dependency("content moderation returned malformed response", err)
	}

	score := resp.AttributeScores["TOXICITY"].SummaryScore.Value
	c.log.Debug("toxicity scored", zap.Float64("score", score))
	metrics.ModerationChecksTotal.WithLabelValues("text", "scored").Inc()
	return score, nil
}

type visionRequest struct {
	Requests []visionImageRequest `json:"requests"`
}

type visionImageRequest struct {
	Image struct {
		Content string `json:"content"`
	} `json:"image"`
	Features []visionFeature `json:"features"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionResponse struct {
	Responses []struct {
		SafeSearch struct {
			Adult    string `json:"adult"`
			Violence string `json:"violence"`
			Racy     string `json:"racy"`
		} `json:"safeSearchAnnotation"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	} `json:"responses"`
}

var likelihood = map[string]int{
	"UNKNOWN":       0,
	"VERY_UNLIKELY": 1,
	"UNLIKELY":      2,
	"POSSIBLE":      3,
	"LIKELY":        4,
	"VERY_LIKELY":   5,
}

func (c *Client) CheckImage(ctx context.Context, file domain.Upload) error {
	if len(file.Content) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { metrics.ModerationLatency.WithLabelValues("image").Observe(time.Since(start).Seconds()) }()

	img := visionImageRequest{}
	img.Image.Content = base64.StdEncoding.EncodeToString(file.Content)
	img.Features = []visionFeature{{Type: "SAFE_SEARCH_DETECTION"}}

	body, err := c.post(ctx, c.cfg.VisionURL, c.cfg.VisionKey, visionRequest{Requests: []visionImageRequest{img}})
	if err != nil {
		metrics.ModerationChecksTotal.WithLabelValues("image", "error").Inc()
		c.log.Error("image check failed", zap.String("filename", file.Filename), zap.Error(err))
		return domain.Dependency("image moderation unavailable", err)
	}

	var resp visionResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Responses) == 0 {
		metrics.ModerationChecksTotal.WithLabelValues("image", "error").Inc()
		return domain.Dependency("image moderation returned malformed response", err)
	}
	r := resp.Responses[0]
	if r.Error != nil {
		metrics.ModerationChecksTotal.WithLabelValues("image", "error").Inc()
		return domain.Dependency("image moderation failed", fmt.Errorf("%s", r.Error.Message))
	}

	ss := r.SafeSearch
	if likelihood[ss.Adult] >= likelihood["LIKELY"] ||
		likelihood[ss.Violence] >= likelihood["LIKELY"] ||
		likelihood[ss.Racy] >= likelihood["LIKELY"] {
		metrics.ModerationChecksTotal.WithLabelValues("image", "rejected").Inc()
		return ErrUnsafeImage
	}

	metrics.ModerationChecksTotal.WithLabelValues("image", "accepted").Inc()
	return nil
}

// post sends payload as JSON through the limiter and the breaker.
func (c *Client) post(ctx context.Context, endpoint, key string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	return c.breaker.Execute(func() ([]byte, error) {
		u := endpoint + "?key=" + url.QueryEscape(key)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &statusError{code: resp.StatusCode, body: string(body)}
		}
		return body, nil
	})
}
