// Package timeouts defines shared timeout constants used across the web
// process so the durations stay discoverable in one place.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing a gRPC health target.
const GRPCDial = 2 * time.Second

// GRPCRequest caps a single gRPC health check call.
const GRPCRequest = 2 * time.Second

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// MaintenanceInterval is how often expired rows are purged from sqlite.
const MaintenanceInterval = 10 * time.Minute
