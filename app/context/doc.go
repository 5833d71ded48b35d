// Package context holds the objects shared by the app, the CLI commands and
// the web server: filesystem, config, logger, standard streams and clock.
// It is separate from package app so that cli can import it.
package context
