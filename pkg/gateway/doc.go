// Package gateway contains the provider registry and the invocation engine.
//
// The registry holds an immutable, priority-ordered list of candidates, each
// binding a provider specification (identifier, model, priority, pricing,
// capability tags) to a live adapter. The engine walks the candidates for a
// capability in priority order, consulting the cost ledger and the rate
// limiter before every attempt, and returns the first success. A candidate
// that cannot be afforded or is under rate-limit backpressure is skipped
// without being called; a candidate that fails transiently is recorded and
// the walk continues; a provider rejection of the request shape aborts the
// walk immediately, since no other provider can fix the request.
//
// When every candidate was skipped or failed, the engine classifies the
// exhaustion from the attempt trail: all-unaffordable reports budget
// exhaustion, all-backpressured reports rate limiting with the minimum
// suggested wait, and anything involving a real attempt error reports
// all-providers-failed with the per-candidate reasons. Callers branch on
// the taxonomy with errors.Is.
//
//	outcome, err := engine.Invoke(ctx, &gateway.InvocationRequest{
//	    Capability: gateway.CapabilityChat,
//	    Messages: []providers.Message{
//	        {Role: providers.RoleUser, Content: "Summarize the agenda."},
//	    },
//	})
//	switch {
//	case err == nil:
//	    fmt.Println(outcome.Response.Content)
//	case errors.Is(err, gateway.ErrBudgetExceeded):
//	    // pause work until the budget period rolls
//	case errors.Is(err, gateway.ErrRateLimited):
//	    // back off for the suggested wait
//	case errors.Is(err, gateway.ErrAllProvidersFailed):
//	    // retry the whole job later
//	}
//
// Cost is recorded only after a provider call returns a priced response;
// cancellations and failures never touch the ledger. Rate-limit slots are
// consumed on attempt and never handed back.
package gateway
