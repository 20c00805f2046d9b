// Package envelope defines the uniform result wrapper returned by tool and
// analysis steps built on top of the invocation gateway.
//
// # Overview
//
// Every step produces a ToolResult: either a success carrying textual content
// plus optional structured artifacts, or a failure carrying an error message.
// The two constructors are the only way to build one; the invariant that a
// success never carries an error message and a failure never carries content
// is enforced at construction time, not by convention.
//
// # Usage
//
//	res := envelope.Success("analysis text", nil, map[string]string{
//	    "provider": "claude-sonnet",
//	    "cost_usd": "0.0042",
//	})
//	if res.OK() {
//	    fmt.Println(res.Content())
//	}
//
//	res = envelope.Failure("all providers failed", nil)
//	if !res.OK() {
//	    fmt.Println(res.ErrorMessage())
//	}
//
// Consumers must check OK before reading content; reading content on a
// failure result is a caller bug, not a system failure.
package envelope
