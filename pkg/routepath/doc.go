// Package routepath provides string-level path arithmetic shared by the
// route compiler.
//
// Two kinds of paths flow through the compiler:
//   - filesystem-like paths of route sources and generated artifacts,
//     joined and relativized with JoinPaths and RelativePath;
//   - URL paths of route nodes, composed with JoinURL and inspected with
//     LastSegment, ParentPath and SplitSegments.
//
// Everything here works on "/"-separated strings and never consults the
// operating system, so results are identical on every platform.
//
// # Usage
//
//	abs := routepath.JoinPaths("../utils.ts", "/app/routes/users")
//	// abs == "/app/routes/utils.ts"
//
//	rel, ok := routepath.RelativePath(abs, "/app/.densky/http/users")
//	// rel == "../../../routes/utils.ts", ok == true
package routepath
