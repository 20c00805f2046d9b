package serper

import (
	"context"
	"log/slog"
	"net/http"

	"stars-end/tribune/pkg/providers"
)

const defaultBaseURL = "https://google.serper.dev"

// searchRequest is the Serper search request body.
type searchRequest struct {
	Query    string `json:"q"`
	Num      int    `json:"num,omitempty"`
	Country  string `json:"gl,omitempty"`
	Language string `json:"hl,omitempty"`
}

// searchResponse is the subset of the Serper response the adapter uses.
type searchResponse struct {
	Organic []organicResult `json:"organic"`
}

type organicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// Provider is the Serper web search provider adapter.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Serper provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "serper",
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

	config.Type = "serper"

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("Serper provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendSearch runs a web search and normalizes the organic results.
func (p *Provider) SendSearch(ctx context.Context, req *providers.SearchRequest) (*providers.SearchResponse, error) {
	if err := validateSearch(req); err != nil {
		return nil, err
	}

	wireReq := searchRequest{
		Query:    req.Query,
		Num:      req.MaxResults,
		Country:  req.Country,
		Language: req.Language,
	}

	headers := map[string]string{"X-API-KEY": p.GetConfig().APIKey}

	var wireResp searchResponse
	url := p.GetConfig().BaseURL + "/search"
	if err := p.DoJSONRequest(ctx, http.MethodPost, url, wireReq, &wireResp, headers); err != nil {
		return nil, err
	}

	hits := make([]providers.SearchHit, 0, len(wireResp.Organic))
	for i, result := range wireResp.Organic {
		if req.MaxResults > 0 && len(hits) >= req.MaxResults {
			break
		}
		position := result.Position
		if position == 0 {
			position = i + 1
		}
		hits = append(hits, providers.SearchHit{
			Title:    result.Title,
			URL:      result.Link,
			Snippet:  result.Snippet,
			Position: position,
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

// HealthCheck probes the base URL. Serper has no unauthenticated status
// endpoint, so any HTTP response counts as reachable.
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
