// Package router builds the densky routing tree and generates its
// dispatchers.
//
// The router provides:
//   - File-system based route discovery (Scanner, Discover)
//   - An arena-backed tree that merges routes sharing a URL prefix
//   - Validation of routes resolving to the same URL
//   - Code generation of one dispatcher per tree node
//
// # File Structure Convention
//
// Routes are TypeScript files below the routes directory:
//
//	src/routes/
//	├── _index.ts          → /
//	├── _middleware.ts     → runs before everything below /
//	├── _fallback.ts       → answers what nothing else answered
//	├── about.ts           → /about
//	├── _helpers.ts        → ignored (leading underscore)
//	└── users/
//	    ├── _index.ts      → /users
//	    └── $id.ts         → /users/$id
//
// # Parameters
//
// A segment starting with "$" captures one request segment:
//
//	$id.ts            → params.get("id")
//	$org/$repo.ts     → params.get("org"), params.get("repo")
//
// # Tree
//
// Routes sharing a prefix are grouped under a container at the common
// path, regardless of insertion order:
//
//	/convention/some-route
//	/convention/with-index
//	/convention/with-index/index-child
//
// becomes
//
//	☆ /
//	| △ convention
//	| | ▲ some-route
//	| | ▲ with-index
//	| | | ▲ index-child
//
// # Usage
//
//	tree, entries, err := router.Discover(ctx, router.ScanOptions{
//	    RoutesDir: "src/routes",
//	    OutputDir: ".densky/http",
//	}, logger)
//
//	gen := router.NewGenerator(tree, router.GeneratorOptions{
//	    CacheHash: router.NewCacheHash(),
//	})
//	artifacts, err := gen.GenerateAll()
package router
