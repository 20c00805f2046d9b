// Package serper implements the Serper web search provider adapter.
//
// Serper exposes Google search results over a JSON API. The adapter posts
// queries to the /search endpoint and normalizes the organic results into
// the provider-agnostic search shape.
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:   "serper",
//	    Type:   "serper",
//	    APIKey: os.Getenv("SERPER_API_KEY"),
//	}
//
//	provider, err := serper.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendSearch(ctx, &providers.SearchRequest{
//	    Query:      "golang sliding window rate limiter",
//	    MaxResults: 5,
//	})
package serper
