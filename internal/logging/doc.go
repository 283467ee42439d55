// Package logging configures structured logging for fsearch.
//
// Library packages log through an injected *slog.Logger and stay silent by
// default. The CLI enables a JSON log in ~/.fsearch/logs/ with --debug (or
// the logging section of the configuration); the file is rotated by size.
package logging
