// Package aggregates defines domain-facing aggregate contracts and the error taxonomy
// every aggregate write reports through.
//
// Precondition failures (not_found, conflict, bad_request) are raised before any mutation
// and reach the caller unchanged; store failures surface as internal.
package aggregates
