// Package main is the flick command: a line-oriented front end to one
// workspace session.
//
// It restores the previous session, optionally opens a folder and a file,
// then reads commands from stdin:
//
//	tree                      print the visible tree
//	folder <dir> [save|discard]
//	open <path>               open a file in a tab
//	switch <path>             activate an open tab
//	close <path> [save|discard]
//	save [path]               save, or save as path
//	append <text>             append text to the live buffer
//	undo, redo
//	expand <rel>, collapse <rel>
//	mkdir <rel>, touch <rel>, mv <rel> <name>, rm <rel>
//	tabs                      list tabs (* active, + modified)
//	stats                     print engine counters
//	quit [save|discard]
//
// Configuration:
//   - flick.toml in the working directory, or -config
//   - Environment variables (FLICK_*, LOG_LEVEL, LOG_DEV), which win
//
// Usage:
//
//	flick [-folder dir] [-config flick.toml] [file]
//
// Signals:
//   - SIGINT, SIGTERM: persist the session and exit
package main
