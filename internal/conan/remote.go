package conan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmaksimovic94/mm-test-release/internal/common/conanref"
	"github.com/mmaksimovic94/mm-test-release/internal/common/logger"
)

// searchResponse is the body of GET /v2/conans/search
type searchResponse struct {
	Results []string `json:"results"`
}

// HTTPIndex queries a Conan server's REST search endpoint directly
type HTTPIndex struct {
	baseURL string
	client  *RetryableHTTPClient
}

// NewHTTPIndex creates an index for the server at baseURL
// (e.g., "https://center.conan.io" or an Artifactory Conan repository URL).
func NewHTTPIndex(baseURL string, client *RetryableHTTPClient) *HTTPIndex {
	return &HTTPIndex{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// SearchURL returns the request URL for a query
func (h *HTTPIndex) SearchURL(q Query) string {
	return h.baseURL + "/v2/conans/search?q=" + url.QueryEscape(q.Pattern())
}

// Versions fetches every matching reference and returns their versions.
// A remote override in q has no meaning for a single server and is ignored.
func (h *HTTPIndex) Versions(ctx context.Context, q Query) ([]string, error) {
	if q.Remote != "" {
		logger.Debug("Ignoring remote %q for %s: http index queries %s", q.Remote, q.Package, h.baseURL)
	}

	searchURL := h.SearchURL(q)
	logger.Debug("Searching index: GET %s", searchURL)

	resp, err := h.client.Get(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	// Conan servers answer 404 when nothing matches the pattern
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrIndexUnavailable, searchURL, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: search response for %s: %v", ErrMalformedOutput, q.Package, err)
	}

	var versions []string
	seen := make(map[string]bool)
	for _, raw := range body.Results {
		ref, err := conanref.Parse(raw)
		if err != nil || ref.Name != q.Package || !acceptsQualifier(q, ref) {
			continue
		}
		versions = appendUnique(versions, seen, ref.Version)
	}
	return versions, nil
}

// Ensure HTTPIndex implements Index interface
var _ Index = (*HTTPIndex)(nil)
