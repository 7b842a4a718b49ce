package render

import (
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/playperu/attractionmap/internal/metrics"
)

// Asset is one file of the browser-side map library.
type Asset struct {
	URL       string `json:"url"`
	Integrity string `json:"integrity,omitempty"`
	Kind      string `json:"kind"`
}

// LoadedAsset is an asset whose bytes were fetched and verified.
type LoadedAsset struct {
	Asset
	Size int `json:"size"`
}

var (
	ErrIntegrity = errors.New("asset integrity mismatch")
	ErrBadAsset  = errors.New("invalid map asset")
)

// ParseAssets reads entries of the form "url#sha256-base64". The integrity
// part is optional.
func ParseAssets(entries []string) ([]Asset, error) {
	out := make([]Asset, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		url, integrity, _ := strings.Cut(entry, "#")
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return nil, fmt.Errorf("%w: %q", ErrBadAsset, entry)
		}
		if integrity != "" {
			if _, _, err := integrityHash(integrity); err != nil {
				return nil, fmt.Errorf("%w: %q: %v", ErrBadAsset, entry, err)
			}
		}
		out = append(out, Asset{URL: url, Integrity: integrity, Kind: kindOf(url)})
	}
	return out, nil
}

func kindOf(url string) string {
	switch strings.ToLower(path.Ext(url)) {
	case ".css":
		return "stylesheet"
	case ".js", ".mjs":
		return "script"
	}
	return "other"
}

func integrityHash(integrity string) (hash.Hash, []byte, error) {
	algo, digest, ok := strings.Cut(integrity, "-")
	if !ok {
		return nil, nil, fmt.Errorf("malformed integrity %q", integrity)
	}
	want, err := base64.StdEncoding.DecodeString(digest)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding integrity digest: %w", err)
	}
	switch algo {
	case "sha256":
		return sha256.New(), want, nil
	case "sha384":
		return sha512.New384(), want, nil
	case "sha512":
		return sha512.New(), want, nil
	}
	return nil, nil, fmt.Errorf("unsupported integrity algorithm %q", algo)
}

// verify checks data against a subresource-integrity value.
func verify(data []byte, integrity string) error {
	if integrity == "" {
		return nil
	}
	h, want, err := integrityHash(integrity)
	if err != nil {
		return err
	}
	h.Write(data)
	if subtle.ConstantTimeCompare(h.Sum(nil), want) != 1 {
		return ErrIntegrity
	}
	return nil
}

type LoaderOptions struct {
	Client *http.Client
	// Cache is optional; a nil client disables caching.
	Cache    *redis.Client
	CacheTTL time.Duration
	Timeout  time.Duration
	Logger   *slog.Logger
}

// AssetLoader fetches and verifies the asset bundle. Concurrent loads share
// one fetch; a caller giving up does not cancel it for the others.
type AssetLoader struct {
	assets  []Asset
	client  *http.Client
	cache   *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

func NewAssetLoader(assets []Asset, opts LoaderOptions) *AssetLoader {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &AssetLoader{
		assets:  assets,
		client:  opts.Client,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
}

func (l *AssetLoader) Load(ctx context.Context) ([]LoadedAsset, error) {
	ch := l.group.DoChan("bundle", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		return l.fetchAll(fctx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]LoadedAsset), nil
	}
}

func (l *AssetLoader) fetchAll(ctx context.Context) ([]LoadedAsset, error) {
	start := time.Now()
	defer func() {
		metrics.AssetFetchDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}()

	out := make([]LoadedAsset, 0, len(l.assets))
	for _, a := range l.assets {
		data, err := l.fetch(ctx, a)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", a.URL, err)
		}
		out = append(out, LoadedAsset{Asset: a, Size: len(data)})
	}
	return out, nil
}

func cacheKey(url string) string { return "attractionmap:asset:" + url }

func (l *AssetLoader) fetch(ctx context.Context, a Asset) ([]byte, error) {
	if l.cache != nil {
		data, err := l.cache.Get(ctx, cacheKey(a.URL)).Bytes()
		switch {
		case err == nil:
			if verify(data, a.Integrity) == nil {
				metrics.AssetFetchesTotal.WithLabelValues("cache", "hit").Inc()
				return data, nil
			}
			l.logger.Warn("cached asset failed integrity check", "url", a.URL)
		case errors.Is(err, redis.Nil):
			metrics.AssetFetchesTotal.WithLabelValues("cache", "miss").Inc()
		default:
			metrics.AssetFetchesTotal.WithLabelValues("cache", "error").Inc()
			l.logger.Warn("asset cache unavailable", "url", a.URL, "error", err)
		}
	}

	data, err := l.download(ctx, a.URL)
	if err != nil {
		metrics.AssetFetchesTotal.WithLabelValues("origin", "error").Inc()
		return nil, err
	}
	if err := verify(data, a.Integrity); err != nil {
		metrics.AssetFetchesTotal.WithLabelValues("origin", "integrity").Inc()
		return nil, err
	}
	metrics.AssetFetchesTotal.WithLabelValues("origin", "ok").Inc()

	if l.cache != nil {
		if err := l.cache.Set(ctx, cacheKey(a.URL), data, l.ttl).Err(); err != nil {
			l.logger.Warn("caching asset failed", "url", a.URL, "error", err)
		}
	}
	return data, nil
}

func (l *AssetLoader) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
}
