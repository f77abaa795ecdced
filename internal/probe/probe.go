package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/eugenenazirov/voicectl/internal/diagnostics"
	"github.com/eugenenazirov/voicectl/internal/envcheck"
	"github.com/eugenenazirov/voicectl/internal/envfile"
)

// Default service endpoints.
const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1/"
	DefaultDeepgramURL       = "https://api.deepgram.com/v1/projects"
	DefaultCartesiaURL       = "https://api.cartesia.ai/voices"
	DefaultCartesiaVersion   = "2024-06-10"
	DefaultTimeout           = 10 * time.Second

	livekitSignalPath = "/rtc"
)

// Config controls probe pacing, timeouts and endpoints.
type Config struct {
	Timeout time.Duration
	RPS     float64
	Burst   int
	// Proxy is an optional SOCKS5 host:port.
	Proxy string

	OpenRouterBaseURL string
	DeepgramURL       string
	CartesiaURL       string
	CartesiaVersion   string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.OpenRouterBaseURL == "" {
		c.OpenRouterBaseURL = DefaultOpenRouterBaseURL
	}
	if c.DeepgramURL == "" {
		c.DeepgramURL = DefaultDeepgramURL
	}
	if c.CartesiaURL == "" {
		c.CartesiaURL = DefaultCartesiaURL
	}
	if c.CartesiaVersion == "" {
		c.CartesiaVersion = DefaultCartesiaVersion
	}
	return c
}

// Prober runs connectivity probes against the voice services.
type Prober struct {
	cfg     Config
	client  *http.Client
	dialer  *websocket.Dialer
	limiter waiter
	logger  *zap.Logger
}

// New constructs a Prober. It fails only when the proxy address is unusable.
func New(cfg Config, logger *zap.Logger) (*Prober, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	var dial dialContextFunc
	if cfg.Proxy != "" {
		d, err := socksDialer(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		dial = d
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: cfg.Timeout,
		TLSClientConfig:  &tls.Config{MinVersion: tls.VersionTLS12},
		NetDialContext:   dial,
	}
	if dial == nil {
		dialer.Proxy = http.ProxyFromEnvironment
	}

	return &Prober{
		cfg:     cfg,
		client:  newHTTPClient(dial),
		dialer:  dialer,
		limiter: newTokenBucketLimiter(cfg.RPS, cfg.Burst),
		logger:  logger,
	}, nil
}

// Checks returns one diagnostics check per service, reading credentials from src.
func (p *Prober) Checks(src *envfile.Source) []diagnostics.Check {
	return []diagnostics.Check{
		p.check("LiveKit server reachable", src, envcheck.KeyLiveKitURL, p.LiveKit),
		p.check("OpenRouter API key accepted", src, envcheck.KeyOpenRouterAPIKey, p.OpenRouter),
		p.check("Deepgram API key accepted", src, envcheck.KeyDeepgramAPIKey, p.Deepgram),
		p.check("Cartesia API key accepted", src, envcheck.KeyCartesiaAPIKey, p.Cartesia),
	}
}

// Failure describes a probe that reached a verdict other than success.
type Failure struct {
	Hint string
	Err  error
}

func (f *Failure) Error() string { return f.Hint + ": " + f.Err.Error() }

func (f *Failure) Unwrap() error { return f.Err }

func fail(hint string, err error) error {
	return &Failure{Hint: hint, Err: err}
}

func (p *Prober) check(name string, src *envfile.Source, key string, run func(context.Context, string) error) diagnostics.Check {
	return diagnostics.Check{
		Name: name,
		Run: func(ctx context.Context) diagnostics.Result {
			value := strings.TrimSpace(src.Get(key))
			if value == "" || envcheck.IsPlaceholder(value) {
				return diagnostics.Fail(name, "set "+key+" first", fmt.Errorf("%w: missing %s", envcheck.ErrConfiguration, key))
			}

			if err := p.limiter.Wait(ctx); err != nil {
				return diagnostics.Fail(name, "probe cancelled", err)
			}

			ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
			defer cancel()

			start := time.Now()
			err := run(ctx, value)
			p.logger.Debug("probe finished",
				zap.String("probe", name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err),
			)
			if err != nil {
				var f *Failure
				if errors.As(err, &f) {
					return diagnostics.Fail(name, f.Hint, err)
				}
				return diagnostics.Fail(name, err.Error(), err)
			}
			return diagnostics.Pass(name)
		},
	}
}

// LiveKit dials the signalling endpoint of rawURL. Any HTTP answer to the
// upgrade request, including 401, proves the server is reachable.
func (p *Prober) LiveKit(ctx context.Context, rawURL string) error {
	if _, valid := envcheck.CheckURLScheme(rawURL); !valid {
		return fail("Must start with wss:// or ws://", fmt.Errorf("%w: malformed %s", envcheck.ErrConfiguration, envcheck.KeyLiveKitURL))
	}

	target := strings.TrimRight(rawURL, "/") + livekitSignalPath
	conn, resp, err := p.dialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err == nil {
		_ = conn.Close()
		return nil
	}
	if errors.Is(err, websocket.ErrBadHandshake) && resp != nil {
		p.logger.Debug("livekit answered upgrade over HTTP", zap.Int("status", resp.StatusCode))
		return nil
	}
	return fail("Could not reach "+rawURL, fmt.Errorf("%w: %w", diagnostics.ErrResourceUnavailable, err))
}

type openRouterKey struct {
	Data struct {
		Label string  `json:"label"`
		Usage float64 `json:"usage"`
	} `json:"data"`
}

// OpenRouter fetches the key metadata endpoint with apiKey.
func (p *Prober) OpenRouter(ctx context.Context, apiKey string) error {
	client := openai.NewClient(
		option.WithBaseURL(p.cfg.OpenRouterBaseURL),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(p.client),
		option.WithMaxRetries(0),
	)

	var res openRouterKey
	err := client.Get(ctx, "key", nil, &res)
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return statusFailure(apiErr.StatusCode)
	}
	return fail("Could not reach OpenRouter", fmt.Errorf("%w: %w", diagnostics.ErrResourceUnavailable, err))
}

// Deepgram lists projects with apiKey.
func (p *Prober) Deepgram(ctx context.Context, apiKey string) error {
	return p.get(ctx, "Deepgram", p.cfg.DeepgramURL, http.Header{
		"Authorization": []string{"Token " + apiKey},
	})
}

// Cartesia lists voices with apiKey.
func (p *Prober) Cartesia(ctx context.Context, apiKey string) error {
	return p.get(ctx, "Cartesia", p.cfg.CartesiaURL, http.Header{
		"X-Api-Key":        []string{apiKey},
		"Cartesia-Version": []string{p.cfg.CartesiaVersion},
	})
}

func (p *Prober) get(ctx context.Context, service, url string, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", service, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fail("Could not reach "+service, fmt.Errorf("%w: %w", diagnostics.ErrResourceUnavailable, err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return statusFailure(resp.StatusCode)
}

func statusFailure(status int) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fail("API key rejected", fmt.Errorf("%w: HTTP %d", envcheck.ErrConfiguration, status))
	}
	return fail(fmt.Sprintf("Unexpected HTTP %d", status), fmt.Errorf("%w: HTTP %d", diagnostics.ErrResourceUnavailable, status))
}
