// Package ratelimit provides a Redis-backed fixed-window rate limiter.
//
// State is shared through Redis, so the budget holds across process restarts
// and across replicas behind a load balancer. The limiter is deliberately
// fail-closed: if Redis is unreachable, Admit returns an error and the caller
// is expected to deny the request.
package ratelimit
