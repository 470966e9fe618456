// Package middleware contains HTTP middleware for the admin Fiber application.
//
// # Components
//
//   - Auth: API key validation protecting every admin endpoint.
//   - RayID: a request id per incoming request, injected into the context and
//     response headers for tracing (see logger.WithRayID).
package middleware
