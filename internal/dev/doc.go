// Package dev provides densky's development mode.
//
// The dev server performs an initial build, watches the routes directory
// and the project config, and rebuilds with a fresh cache hash after every
// debounced batch of changes. A config change reloads the configuration
// first.
//
// # Endpoints
//
//	GET  /status          last build status, id and cache hash
//	GET  /tree            tree display of the last successful build
//	GET  /routes          build manifest
//	GET  /match?path=/x   node a URL path resolves to
//	POST /rebuild         force a rebuild
//	GET  /metrics         Prometheus metrics
//	GET  /reload          WebSocket reload notifications
//
// # Reload Protocol
//
// Messages are JSON-encoded:
//
//	{"type": "rebuild", "buildId": "...", "cacheHash": "...", "entry": "http/_index.ts"}
//	{"type": "error", "error": "..."}
//	{"type": "clear"}
//
// A runtime reacts to "rebuild" by importing the entry dispatcher again
// with the new cache hash. New clients receive the last message on connect.
package dev
