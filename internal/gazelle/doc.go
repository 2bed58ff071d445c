// Package gazelle is the HTTP client for a Gazelle tracker's ajax API. It
// paces requests with a client-side rate limiter, unwraps the tracker's
// {status, response} envelope, and converts wire payloads into release types.
package gazelle
