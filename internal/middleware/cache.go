package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/stock-inventory/internal/config"
	"github.com/iliyamo/stock-inventory/internal/logging"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 || cw.size < cw.limit {
		if cw.limit <= 0 {
			cw.buf.Write(b)
		} else if remain := cw.limit - cw.size; int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// ProductCache caches product reads in Redis per company.  Each company has
// a version counter that is part of every key; Invalidate bumps it, so all
// listings of that company miss at once and the stale entries age out.
type ProductCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

// NewProductCache returns a cache; a nil client disables it.
func NewProductCache(cfg config.CacheConfig, rdb *redis.Client) *ProductCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	return &ProductCache{cfg: cfg, rdb: rdb}
}

func (pc *ProductCache) enabled() bool { return pc != nil && pc.cfg.Enabled && pc.rdb != nil }

func (pc *ProductCache) versionKey(companyID int64) string {
	return fmt.Sprintf("%s:c:%d:v", pc.cfg.Prefix, companyID)
}

// Invalidate drops every cached read of companyID.
func (pc *ProductCache) Invalidate(ctx context.Context, companyID int64) error {
	if !pc.enabled() {
		return nil
	}
	return pc.rdb.Incr(ctx, pc.versionKey(companyID)).Err()
}

func (pc *ProductCache) key(ctx context.Context, companyID int64, c echo.Context) (string, error) {
	ver, err := pc.rdb.Get(ctx, pc.versionKey(companyID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	r := c.Request()
	sum := sha1.Sum([]byte(r.Method + " " + c.Path() + "?" + r.URL.RawQuery + "#" + c.Param("id")))
	return fmt.Sprintf("%s:c:%d:v%d:%x", pc.cfg.Prefix, companyID, ver, sum[:]), nil
}

// Middleware serves cached 200 responses and stores fresh ones.  It must
// run after AccessGuard: requests without a company are not cached.
func (pc *ProductCache) Middleware() echo.MiddlewareFunc {
	if !pc.enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	maxBody := int64(pc.cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !pc.cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}
			p, ok := IdentityFrom(c)
			if !ok || p.CompanyID == nil {
				return next(c)
			}

			ctx := c.Request().Context()
			key, err := pc.key(ctx, *p.CompanyID, c)
			if err != nil {
				logging.FromContext(c).Warn("product cache unavailable", "err", err)
				return next(c)
			}

			if bs, err := pc.rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if skipCachedHeader(k) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}
			hdr := c.Response().Header().Clone()
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				_ = pc.rdb.SetEx(context.Background(), key, payload, pc.cfg.TTL).Err()
			}
			return nil
		}
	}
}

func skipCachedHeader(k string) bool {
	switch http.CanonicalHeaderKey(k) {
	case "Content-Length", "Set-Cookie", "X-Request-Id", "X-Cache":
		return true
	}
	return false
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}
