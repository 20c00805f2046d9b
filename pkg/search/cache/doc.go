// Package cache provides the search result cache collaborator: an
// interface plus an in-memory backend and a SQLite-backed one. The search
// client treats the collaborator as advisory; a failing cache degrades to
// misses rather than failing queries.
package cache
