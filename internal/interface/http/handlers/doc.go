// Package handlers provides reusable HTTP building blocks shared by the
// API and worker servers: health check aggregation, standalone
// middleware, and API key authentication for admin endpoints.
//
// The package deliberately has no dependency on the application layer,
// so the worker can expose a health and admin surface without pulling
// in the CQRS handlers.
package handlers
