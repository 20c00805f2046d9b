// Tribune is a provider-resilient invocation gateway for LLM and web
// search providers.
//
// It walks a priority-ranked provider list for every request, enforcing a
// shared budget ledger and per-provider rate limits, falling over to the
// next candidate on transient failure:
//   - Multi-provider chat invocation (Anthropic, OpenAI, OpenAI-compatible)
//   - Web search with cached results (Serper, Brave)
//   - Exact-total cost tracking with periodic budget rolls
//   - Citation validation of model output against source documents
//
// Usage:
//
//	# Ask a question through the provider chain
//	tribune ask "Summarize the attached ordinance" --source-file ordinance.txt
//
//	# Run a web search
//	tribune search "municipal budget 2026" --fresh
//
//	# Validate a configuration file
//	tribune validate --config /path/to/config.yaml
//
//	# List configured providers
//	tribune providers
//
//	# Show version information
//	tribune version
package main

func main() {
	Execute()
}
