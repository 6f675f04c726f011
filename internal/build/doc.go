// Package build runs the densky pipeline for one project.
//
// A build:
//   - discovers route files below the routes directory
//   - inserts them into a routing tree
//   - reports routes resolving to the same URL
//   - generates one dispatcher per tree node
//   - writes the dispatchers and a manifest to the configured sink
//
// # Usage
//
//	cfg, _ := config.LoadOrDefault(".")
//	builder := build.New(cfg, build.Options{})
//	result, err := builder.Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Built %d dispatchers in %s\n", len(result.Artifacts), result.Duration)
//
// # Output Structure
//
//	.densky/
//	├── http/
//	│   ├── _index.ts        # root dispatcher, the entry point
//	│   ├── about.ts
//	│   └── users/
//	│       ├── _index.ts    # container dispatcher for /users
//	│       └── $id.ts
//	└── manifest.json
//
// # Manifest
//
// The manifest lists every dispatcher with its kind, source file and
// content hash:
//
//	{
//	  "buildId": "0b6c…",
//	  "cacheHash": "9f1d2c3b4a5e6f70",
//	  "entry": "http/_index.ts",
//	  "nodes": [
//	    {"path": "/about", "kind": "route", "key": "http/about.ts", "methods": ["GET"], "sha256": "…"}
//	  ]
//	}
package build
