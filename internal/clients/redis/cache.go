package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/renderprep-backend/internal/logger"
	"github.com/yungbote/renderprep-backend/internal/pipeline"
	"github.com/yungbote/renderprep-backend/internal/utils"
)

// ResponseCache stores finished pipeline envelopes keyed by the content hash,
// so regenerating the same raw record for the same context is a lookup.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*pipeline.PipelineResponse, bool)
	Set(ctx context.Context, key string, resp pipeline.PipelineResponse)
	Close() error
}

type responseCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// NewResponseCache connects using REDIS_ADDR and verifies the connection
// before returning. A missing address is an error; callers treat it as
// "cache disabled" and pass a nil cache downstream.
func NewResponseCache(log *logger.Logger) (ResponseCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_CACHE_PREFIX"))
	if prefix == "" {
		prefix = "renderprep:response"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &responseCache{
		log:    log.With("service", "RedisResponseCache"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (c *responseCache) Get(ctx context.Context, key string) (*pipeline.PipelineResponse, bool) {
	if c == nil || c.rdb == nil || key == "" {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, c.prefix+":"+key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("cache read failed", "error", err)
		}
		return nil, false
	}
	var resp pipeline.PipelineResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.Warn("bad cached payload, dropping", "error", err)
		return nil, false
	}
	return &resp, true
}

func (c *responseCache) Set(ctx context.Context, key string, resp pipeline.PipelineResponse) {
	if c == nil || c.rdb == nil || key == "" {
		return
	}
	// Fallback envelopes are never cached; the next attempt may succeed.
	if resp.Error != nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		c.log.Warn("cache encode failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+":"+key, raw, ttlFor(resp)).Err(); err != nil {
		c.log.Warn("cache write failed", "error", err)
	}
}

func (c *responseCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// ttlFor keeps reusable content around much longer. Both TTLs are overridable
// in hours via CACHE_TTL_AGGRESSIVE_HOURS and CACHE_TTL_DEFAULT_HOURS.
func ttlFor(resp pipeline.PipelineResponse) time.Duration {
	if resp.Performance.CacheStrategy == "aggressive" {
		return time.Duration(utils.GetEnvAsInt("CACHE_TTL_AGGRESSIVE_HOURS", 24, nil)) * time.Hour
	}
	return time.Duration(utils.GetEnvAsInt("CACHE_TTL_DEFAULT_HOURS", 1, nil)) * time.Hour
}

// CacheKey hashes the raw record plus the context fields that change the
// output. Map iteration order is not stable, so keys are sorted first.
func CacheKey(raw pipeline.RawContent, reqCtx pipeline.RequestContext) string {
	h := sha256.New()
	writeCanonical(h.Write, map[string]any(raw))
	fmt.Fprintf(hashWriter{h.Write}, "|%s|%s|%v", reqCtx.GradeLevel, themeOf(reqCtx), reqCtx.StrictMode)
	if reqCtx.Device != nil {
		fmt.Fprintf(hashWriter{h.Write}, "|%s|%dx%d", reqCtx.Device.Type, reqCtx.Device.ViewportWidth, reqCtx.Device.ViewportHeight)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type hashWriter struct {
	write func([]byte) (int, error)
}

func (w hashWriter) Write(p []byte) (int, error) { return w.write(p) }

func themeOf(reqCtx pipeline.RequestContext) string {
	if reqCtx.DarkMode {
		return "dark"
	}
	return "light"
}

func writeCanonical(write func([]byte) (int, error), v any) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		write([]byte("{"))
		for _, k := range keys {
			write([]byte(k))
			write([]byte("="))
			writeCanonical(write, t[k])
			write([]byte(";"))
		}
		write([]byte("}"))
	case []any:
		write([]byte("["))
		for _, e := range t {
			writeCanonical(write, e)
			write([]byte(","))
		}
		write([]byte("]"))
	default:
		fmt.Fprintf(hashWriter{write}, "%v", t)
	}
}
