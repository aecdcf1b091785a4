// Package cachestorage keeps named, versioned caches of HTTP responses.
package cachestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Entry is a stored response.
type Entry struct {
	Key      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Storage is the set of named caches available to one origin.
type Storage interface {
	// Open creates the named cache when missing.
	Open(ctx context.Context, name string) error
	// Put stores entry in the named cache, creating the cache when missing.
	Put(ctx context.Context, name string, entry Entry) error
	// Match looks key up in every cache, oldest cache first.
	Match(ctx context.Context, key string) (Entry, bool, error)
	// Names lists caches in creation order.
	Names(ctx context.Context) ([]string, error)
	// Delete drops a cache and its entries. It reports whether the cache existed.
	Delete(ctx context.Context, name string) (bool, error)
}

// KeyFor derives the cache key of a request. Only GET requests are cacheable.
func KeyFor(req *http.Request) (string, bool) {
	if req == nil || req.URL == nil {
		return "", false
	}
	if req.Method != "" && req.Method != http.MethodGet {
		return "", false
	}
	u := *req.URL
	u.Fragment = ""
	u.RawFragment = ""
	if u.Host == "" && req.Host != "" {
		u.Host = req.Host
	}
	return u.String(), true
}

// EntryFromResponse drains and closes resp.Body.
func EntryFromResponse(key string, resp *http.Response, now time.Time) (Entry, error) {
	if resp == nil {
		return Entry{}, fmt.Errorf("nil response for %s", key)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, fmt.Errorf("read response for %s: %w", key, err)
	}
	return Entry{
		Key:      key,
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: now.UTC(),
	}, nil
}

// Response rebuilds an http.Response for req from the entry.
func (e Entry) Response(req *http.Request) *http.Response {
	header := e.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("Content-Length", strconv.Itoa(len(e.Body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(e.Body)),
		ContentLength: int64(len(e.Body)),
		Request:       req,
	}
}
