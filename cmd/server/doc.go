// Package main is the entry point for the FileShelf backend server.
//
// The server exposes a quota-enforced file manager over HTTP: listing,
// create, delete, upload, download (directories as archives) and glob
// search, all confined to a single storage root.
//
// Configuration:
//   - TOML config file (CONFIG_FILE or -config)
//   - Environment variables (12-factor)
//   - CLI flags (override both)
//
// Usage:
//
//	# Production mode
//	./server -port 8080 -root /var/lib/fileshelf
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
