// Package logfactory builds labeled loggers over rs/zerolog from declarative
// transport configuration.
//
// Key features
//   - A Registry of named transport types with default options, resolved
//     exactly, then title-cased, then case-insensitively, before falling back
//     to the built-in Console, File and Memory transports
//   - A Container holding one live Logger per category
//   - A Factory that deep-merges per-call overrides over a default transport
//     configuration and stamps one label on every transport
//   - Child loggers via Logger.CreateChild, labeled parent:child
//   - Structured-only event API that fans out to every transport, with error
//     chain enrichment for Station-Manager DetailedError values
//   - Configuration from YAML and LOGFACTORY_* environment variables, with
//     optional hot reload of the default transports
//
// Typical usage
//
//	svc := logfactory.NewService(logfactory.DefaultConfig())
//	if err := svc.Initialize(); err != nil { panic(err) }
//	defer svc.Close()
//
//	log, err := svc.Factory().Create("billing", "billing-api", nil)
//	if err != nil { panic(err) }
//	log.InfoWith().Str("invoice", id).Msg("issued")
//
//	audit, _ := log.CreateChild("audit")
//	audit.WarnWith().Msg("manual override")
package logfactory
