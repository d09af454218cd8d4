// Package errors provides classified errors for the publication workflow.
//
// Every failure mode in the request pipeline maps to a category: validation
// and auth failures are rejected before side effects, not-found covers the
// round-2 repository lookup, and generation/forge/git categories carry the
// diagnostic text of the external call that failed. The HTTPErrorAdapter
// turns a classified error into the matching status code and JSON body, so
// handlers never hand-pick status codes.
package errors
