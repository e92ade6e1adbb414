// Package application provides application initialization and dependency wiring.
// It creates the panel store, the layout store (in memory or Redis), the
// packing engine, handlers, routers and the HTTP server, keeping the main
// package focused on CLI parsing and orchestration.
package application
