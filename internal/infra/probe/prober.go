// Package probe checks whether catalog audio URLs are reachable.
package probe

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/edumarques81/songdle/internal/domain/catalog"
	"github.com/edumarques81/songdle/internal/version"
)

const (
	// DefaultTimeout bounds each HEAD request.
	DefaultTimeout = 5 * time.Second

	// DefaultConcurrency is the number of requests in flight.
	DefaultConcurrency = 8

	// DefaultProgressEvery is how many songs pass between progress lines.
	DefaultProgressEvery = 50
)

// Prober issues HEAD requests against audio URLs. Redirects are reported,
// not followed.
type Prober struct {
	client        *resty.Client
	baseURL       string
	concurrency   int
	progressEvery int
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		p.client.SetTimeout(d)
	}
}

// WithConcurrency sets how many URLs are probed at once.
func WithConcurrency(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithBaseURL resolves site-relative URLs such as "/audio/x.mp3".
func WithBaseURL(u string) Option {
	return func(p *Prober) {
		p.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithProgressEvery sets the progress logging interval.
func WithProgressEvery(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.progressEvery = n
		}
	}
}

// New creates a prober.
func New(opts ...Option) *Prober {
	client := resty.New().
		SetTimeout(DefaultTimeout).
		SetHeader("User-Agent", version.UserAgent()).
		SetLogger(restyLogger{}).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))

	p := &Prober{
		client:        client,
		concurrency:   DefaultConcurrency,
		progressEvery: DefaultProgressEvery,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Prober) resolve(u string) string {
	if strings.HasPrefix(u, "/") && p.baseURL != "" {
		return p.baseURL + u
	}
	return u
}

// Check reports whether url answers a HEAD request with a 2xx or 3xx
// status. Every failure, including an empty URL, is false.
func (p *Prober) Check(ctx context.Context, url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}

	resp, err := p.client.R().SetContext(ctx).Head(p.resolve(url))
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("Audio probe failed")
		return false
	}

	code := resp.StatusCode()
	return code >= 200 && code < 400
}

// Report is the result of verifying a whole catalog.
type Report struct {
	TotalSongs      int            `json:"totalSongs"`
	WorkingSongs    int            `json:"workingSongs"`
	NotWorkingSongs int            `json:"notWorkingSongs"`
	VerifiedAt      time.Time      `json:"verifiedAt"`
	Songs           []catalog.Song `json:"songs"`
}

// VerifyAll probes every song and returns copies with AudioWorking set,
// in the original order.
func (p *Prober) VerifyAll(ctx context.Context, songs []catalog.Song) (*Report, error) {
	out := make([]catalog.Song, len(songs))
	copy(out, songs)

	var (
		mu      sync.Mutex
		checked int
		working int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i := range out {
		g.Go(func() error {
			ok := p.Check(gctx, out[i].AudioURL)
			out[i].AudioWorking = &ok

			mu.Lock()
			checked++
			if ok {
				working++
			}
			if checked%p.progressEvery == 0 || checked == len(out) {
				log.Info().
					Int("checked", checked).
					Int("total", len(out)).
					Int("working", working).
					Int("notWorking", checked-working).
					Msg("Verifying audio")
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Report{
		TotalSongs:      len(out),
		WorkingSongs:    working,
		NotWorkingSongs: len(out) - working,
		VerifiedAt:      time.Now().UTC(),
		Songs:           out,
	}, nil
}

// restyLogger routes resty's own messages to zerolog.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) { log.Debug().Msgf("resty: "+format, v...) }
func (restyLogger) Warnf(format string, v ...interface{})  { log.Debug().Msgf("resty: "+format, v...) }
func (restyLogger) Debugf(format string, v ...interface{}) { log.Trace().Msgf("resty: "+format, v...) }
