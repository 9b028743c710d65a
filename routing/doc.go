// Package routing models the fleet of remote processing backends: an
// endpoint registry, a periodic health checker, a pluggable load balancer,
// and named processing routes mapping (task, model) to the modalities and
// endpoints that serve them.
//
// The registry is the engine's only mutable shared state. Health fields are
// written by the health checker alone (single writer) and read by the
// balancer and callers (many readers).
package routing
