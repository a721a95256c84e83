// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON lines on stderr
//   - Development: colored console output with caller and stack traces
//
// Components never build their own loggers. They receive the embedded
// *zap.Logger and derive named children:
//
//	log := logging.NewDefault()
//	defer log.Close()
//	tree := tree.New(fs, filter, log.Named("tree"))
//
// Tests use logging.NewNop() or zap.NewNop().
package logging
