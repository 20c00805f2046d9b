package brave

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"stars-end/tribune/pkg/providers"
)

const defaultBaseURL = "https://api.search.brave.com/res/v1"

// webSearchResponse is the subset of the Brave response the adapter uses.
type webSearchResponse struct {
	Web webResults `json:"web"`
}

type webResults struct {
	Results []webResult `json:"results"`
}

type webResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Provider is the Brave web search provider adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Brave provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "brave",
			Field:    "name",
			Message:  "provider name is required",
		}
	}
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required",
		}
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	config.Type = "brave"

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("Brave provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendSearch runs a web search and normalizes the results. Brave does not
// report result positions, so hits are numbered in response order.
func (p *Provider) SendSearch(ctx context.Context, req *providers.SearchRequest) (*providers.SearchResponse, error) {
	if err := validateSearch(req); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("q", req.Query)
	if req.MaxResults > 0 {
		params.Set("count", strconv.Itoa(req.MaxResults))
	}
	if req.Country != "" {
		params.Set("country", req.Country)
	}
	if req.Language != "" {
		params.Set("search_lang", req.Language)
	}

	headers := map[string]string{
		"X-Subscription-Token": p.GetConfig().APIKey,
		"Accept":               "application/json",
	}

	var wireResp webSearchResponse
	requestURL := p.GetConfig().BaseURL + "/web/search?" + params.Encode()
	if err := p.DoJSONRequest(ctx, http.MethodGet, requestURL, nil, &wireResp, headers); err != nil {
		return nil, err
	}

	hits := make([]providers.SearchHit, 0, len(wireResp.Web.Results))
	for i, result := range wireResp.Web.Results {
		if req.MaxResults > 0 && len(hits) >= req.MaxResults {
			break
		}
		hits = append(hits, providers.SearchHit{
			Title:    result.Title,
			URL:      result.URL,
			Snippet:  result.Description,
			Position: i + 1,
		})
	}

	slog.Debug("Search request successful",
		"provider", p.GetName(),
		"query", req.Query,
		"hits", len(hits),
	)

	return &providers.SearchResponse{
		Provider: p.GetName(),
		Query:    req.Query,
		Hits:     hits,
		Metadata: make(map[string]string),
	}, nil
}

// StartHealthChecker starts periodic reachability probes.
func (p *Provider) StartHealthChecker(ctx context.Context) {
	p.BaseProvider.StartHealthChecker(ctx, p.HealthCheck)
}

// HealthCheck probes the base URL. Any HTTP response counts as reachable.
func (p *Provider) HealthCheck(ctx context.Context) error {
	return p.Reachable(ctx)
}

func validateSearch(req *providers.SearchRequest) error {
	if req == nil {
		return &providers.ValidationError{
			Field:   "request",
			Message: "request cannot be nil",
		}
	}
	if req.Query == "" {
		return &providers.ValidationError{
			Field:   "query",
			Message: "query is required",
		}
	}
	return nil
}
