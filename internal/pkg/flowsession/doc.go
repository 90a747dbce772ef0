// Package flowsession tracks a client's position inside a multi-step flow,
// such as the two-device password reset.
//
// The browser only holds an opaque session id (as a cookie); the state machine
// itself lives in Redis so any replica can serve the next step, and so the
// whole flow evaporates on its own when the TTL runs out.
package flowsession
