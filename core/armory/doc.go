// Package armory is the client for the remote game-data API.
//
// The remote never pushes updates, so the sync engine polls it for guild metadata,
// guild rosters, character profiles and collection documents.
//
// # Errors
//
// A confirmed remote absence (HTTP 404) is reported as an error wrapping ErrNotFound,
// distinct from throttling, auth and server failures. The sync engine soft-disables
// entities only on ErrNotFound; every other failure is retried on the next cycle.
//
// # Retries
//
// Throttled (429) and 5xx responses are retried with exponential backoff and jitter,
// honouring Retry-After. Timeouts are enforced per request by the HTTP client.
//
// # Usage
//
//	client := armory.NewClient(cfg.Armory, logger)
//	roster, err := client.GuildRoster(ctx, "us", "area-52", "the-order")
//	if armory.IsNotFound(err) {
//	    // guild is gone
//	}
package armory
