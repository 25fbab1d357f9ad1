// Package log provides the structured logging abstraction shared by the
// gateway session, the action executor and the event dispatcher.
//
// Components never import a logging library directly; they accept a
// [Logger]. Two implementations ship with the package:
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//	quiet := log.NewNoopLogger()
//
// Fields are built with the typed constructors ([String], [Int], [Err], ...)
// so adapters can map them onto their native field types without
// reflection. Gateway code logs with the keys listed in the constants
// below so log lines from different components can be correlated.
package log
