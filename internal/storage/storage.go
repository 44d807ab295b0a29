package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidKey = errors.New("storage: invalid object key")

// ObjectStore keeps listing images. Put returns the public URL of the
// stored object.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(raw string) (string, bool)
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return false
		}
	}
	return true
}

// keyFromPath returns the object key encoded in the path of raw.
func keyFromPath(raw, prefix string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	p := strings.TrimPrefix(u.Path, "/")
	if prefix != "" {
		prefix = strings.Trim(prefix, "/") + "/"
		if !strings.HasPrefix(p, prefix) {
			return "", false
		}
		p = strings.TrimPrefix(p, prefix)
	}
	if !validKey(p) {
		return "", false
	}
	return p, true
}
