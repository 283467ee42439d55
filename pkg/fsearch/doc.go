// Package fsearch finds a literal or regular-expression pattern in files or
// in-memory buffers and reports line/column-addressed matches.
//
// Matches come from one of two backends with identical semantics:
//
//   - the native engine, an in-process capability injected into the [Client]
//   - the platform line-search utility (grep on POSIX, findstr on Windows)
//
// Every search exists in a blocking form and a stream form:
//
//	c, _ := fsearch.New()
//
//	// Native engine, blocking
//	matches, err := c.Query(ctx, fsearch.Literal("TODO"),
//	    fsearch.WithFilePath("./internal"),
//	    fsearch.WithExclude("**/*_test.go"),
//	)
//
//	// Platform grep, streamed
//	s, err := c.GrepStream(ctx, fsearch.Pattern(`func \w+`),
//	    fsearch.WithBuffer(src),
//	)
//	for batch := range s.Batches() {
//	    ...
//	}
//
// # Options
//
// Case is ignored by default. The limit bounds the number of matching lines
// considered across all files; every occurrence on a retained line is
// reported. A limit <= 0 returns an empty result without touching a
// backend. The formatter receives (matched, before, after) for each
// occurrence and its return value becomes the match content.
//
// # Buffers
//
// A buffer is written to a private temporary file for the duration of one
// call and removed on every exit path. Matches from a buffer carry an empty
// FilePath.
//
// # Thread Safety
//
// A Client is safe for concurrent use.
package fsearch
