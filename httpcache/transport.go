package httpcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/singleflight"
)

const HeaderFromCache = "X-From-Cache"

// Transport answers GET requests from the cache and stores successful
// upstream responses in it. Concurrent misses for the same URL share one
// upstream request.
type Transport struct {
	cache *Cache
	next  http.RoundTripper
	group singleflight.Group
}

func NewTransport(cache *Cache, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{cache: cache, next: next}
}

type fetched struct {
	status int
	header http.Header
	body   []byte
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.next.RoundTrip(req)
	}

	ctx := req.Context()
	key := req.URL.String()

	body, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		t.cache.logger.WarnContext(ctx, "cache lookup failed, fetching", slog.String("url", key), slog.Any("error", err))
	}
	if ok {
		header := http.Header{}
		header.Set("Content-Type", "application/json")
		header.Set(HeaderFromCache, "1")
		return newResponse(req, http.StatusOK, header, body), nil
	}

	// The shared fetch must outlive any single caller, each caller only
	// waits as long as its own context allows.
	ch := t.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := detach(ctx)
		defer cancel()

		resp, err := t.next.RoundTrip(req.Clone(fetchCtx))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if err := t.cache.Put(fetchCtx, key, b); err != nil {
				t.cache.logger.WarnContext(fetchCtx, "cache store failed", slog.String("url", key), slog.Any("error", err))
			}
		}
		return &fetched{status: resp.StatusCode, header: resp.Header.Clone(), body: b}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		f := res.Val.(*fetched)
		return newResponse(req, f.status, f.header.Clone(), f.body), nil
	}
}

// detach drops the cancellation of ctx but keeps its deadline, so a client
// timeout still bounds the fetch.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(base, deadline)
	}
	return context.WithCancel(base)
}

func newResponse(req *http.Request, status int, header http.Header, body []byte) *http.Response {
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}
