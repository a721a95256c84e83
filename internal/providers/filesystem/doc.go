// Package filesystem provides the filesystem surface consumed by the tree
// model and the session controller.
//
// Components:
//   - FS: list, probe, stat, read, write, mkdir, rename and remove
//   - OS: host implementation with atomic writes and recursive removal
//   - Error: failed operation with a user-facing reason
//   - Detect: text/binary sniffing (mimetype) and charset detection (chardet)
//
// Writes go through a temp file in the target directory followed by a
// rename, so a crash never leaves a half-written file behind. Remove
// enumerates a directory with fastwalk before deleting anything.
//
// Example Usage:
//
//	fsys := filesystem.NewOS(log.Named("fs"))
//	data, err := fsys.ReadFile(path)
//	if err != nil {
//		var fe *filesystem.Error
//		errors.As(err, &fe) // fe.Reason == "permission denied"
//	}
package filesystem
