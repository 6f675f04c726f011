// Package config loads densky project configuration.
//
// The configuration lives in densky.json or densky.yaml at the project
// root. Both are optional: a project without one builds src/routes into
// .densky/http.
//
// # Configuration File Structure
//
//	{
//	  "name": "shop",
//	  "routes": {
//	    "dir": "src/routes",
//	    "extension": ".ts"
//	  },
//	  "output": {
//	    "dir": ".densky",
//	    "httpDir": "http",
//	    "s3": {
//	      "bucket": "${DENSKY_BUCKET}",
//	      "prefix": "shop/"
//	    }
//	  },
//	  "dev": {
//	    "port": 4400,
//	    "debounce": "100ms",
//	    "ignore": ["**/*.test.ts"]
//	  },
//	  "log": { "level": "debug" }
//	}
//
// # Usage
//
//	cfg, err := config.LoadOrDefault(projectDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Routes:", cfg.RoutesPath())
package config
