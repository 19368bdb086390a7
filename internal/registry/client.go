// Package registry queries a package registry for the versions a package
// has been published under.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/yalp/jsonpath"
)

// versionsPath selects the per-version manifest object of a registry document.
const versionsPath = "$.versions"

// Client reads package documents from an npm-compatible registry.
type Client struct {
	BaseURL string
	client  *http.Client
}

// New returns a Client for baseURL. A zero timeout means no timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// URL returns the document URL for pkg. Scoped names keep their "@" and have
// the separating slash escaped, as the registry expects.
func (c *Client) URL(pkg string) string {
	return c.BaseURL + "/" + url.PathEscape(pkg)
}

// Versions returns every version pkg has been published under, sorted
// lexically. Ordering by precedence is left to the caller.
func (c *Client) Versions(ctx context.Context, pkg string) ([]string, error) {
	u := c.URL(pkg)

	var doc any
	if err := getJSON(ctx, c.client, u, nil, &doc); err != nil {
		return nil, ErrorRegistry(pkg, u, err)
	}

	raw, err := jsonpath.Read(doc, versionsPath)
	if err != nil {
		return nil, ErrorRegistry(pkg, u, fmt.Errorf("document has no versions: %w", err))
	}
	versions, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrorRegistry(pkg, u, errors.New("versions is not an object"))
	}

	out := make([]string, 0, len(versions))
	for v := range versions {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}
