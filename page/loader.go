package page

import (
	"context"
	"errors"
	"fmt"
)

// ErrPageNotFound is returned by MapLoader for unknown URLs.
var ErrPageNotFound = errors.New("page: no document for url")

// MapLoader serves documents from memory, keyed by absolute URL.
type MapLoader map[string]string

func (m MapLoader) Load(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, ok := m[url]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPageNotFound, url)
	}
	return body, nil
}
