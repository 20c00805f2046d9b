// Package brave implements the Brave web search provider adapter.
//
// The adapter queries the Brave Search API's web search endpoint and
// normalizes the results into the provider-agnostic search shape. Brave
// authenticates with a subscription token header and takes all query
// parameters on the URL.
//
// # Basic Usage
//
//	config := providers.ProviderConfig{
//	    Name:   "brave",
//	    Type:   "brave",
//	    APIKey: os.Getenv("BRAVE_API_KEY"),
//	}
//
//	provider, err := brave.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	resp, err := provider.SendSearch(ctx, &providers.SearchRequest{
//	    Query:      "golang sliding window rate limiter",
//	    MaxResults: 5,
//	})
package brave
