// Package output stores generated dispatchers.
//
// A Sink takes slash separated keys relative to the output root. DirSink
// writes them below a local directory, S3Sink uploads them to a bucket
// and MemorySink keeps them for dry runs and tests.
package output
