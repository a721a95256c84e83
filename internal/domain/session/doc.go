/*
Package session owns one workspace: the file tree, the open tabs and the
live buffer, and keeps them consistent.

# Buffer authority

The live buffer is authoritative for the active tab; every other tab holds
its own content. Switching tabs flushes the live buffer into the previous
tab, then loads the target tab into the live buffer. Both steps run under
ModeSwitching, during which live-buffer change notifications are ignored,
so a programmatic load never marks a document modified.

# Threading

A Session is not safe for concurrent use. Drive it from one goroutine,
either directly or through Run, which also applies large-file loads and
directory watcher events. Large files are read on a worker goroutine; the
result is applied when the session goroutine receives it. Each request
carries a session-wide sequence number, the latest per path is current,
and superseded results are dropped.

# Unsaved changes

Operations that would discard edits return ErrUnsavedChanges without side
effects. The matching Resolve method completes them with the user's
Choice.
*/
package session
