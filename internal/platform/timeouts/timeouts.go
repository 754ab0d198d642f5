// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long a server waits for in-flight work during graceful
// shutdown.
const Shutdown = 5 * time.Second

// HTTPClient caps a single JSON API call made by tools.
const HTTPClient = 10 * time.Second

// HealthCheck caps the -healthcheck request to a running service.
const HealthCheck = 3 * time.Second

// WebsocketWrite caps a single websocket frame write.
const WebsocketWrite = 10 * time.Second

// WebsocketPong is how long a websocket peer may stay silent before it is
// dropped. Pings are sent at 9/10 of this interval.
const WebsocketPong = 60 * time.Second

// OverlayRefresh is how often overlay pages re-fetch their snapshot.
const OverlayRefresh = 3 * time.Second
