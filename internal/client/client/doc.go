// Package client contains the client side of the remote stock store.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Gateway interface) used by the
//     sync engine and the session and reference services: authenticate,
//     reference data download, stocktake management, loading previous scans
//     and the two batch writes (upsert and delete).
//  2. A concrete HTTP implementation (see HTTPGateway). Every call is a POST
//     of a JSON envelope {"action": name, ...params} to a single endpoint;
//     responses carry {"success": bool, "message": string, ...}.
//
// # Error Handling
//
// Transport conditions are exposed as sentinel errors that callers can match
// with errors.Is: ErrUnavailable (network failure, timeout, HTTP 5xx),
// ErrUnauthorized (HTTP 401/403) and ErrRejected (success=false; the remote
// message is kept in the error text).
//
// Read-only actions are retried with exponential backoff on ErrUnavailable.
// Batch writes are never retried here; the sync engine decides what to resend.
//
// Concurrency & Contexts
//
// HTTPGateway is safe for concurrent use. All operations accept
// context.Context and honor cancellation and deadlines.
package client
