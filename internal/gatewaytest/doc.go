// Package gatewaytest provides scriptable in-memory providers and mock
// HTTP servers shared by the gateway, search, and integration tests.
package gatewaytest
