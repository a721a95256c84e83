/*
Package storage persists session records across restarts.

Each record is a small text file under the config directory, named
".flick_<record>". Writes are atomic through the filesystem provider and are
skipped when the content is unchanged since the last write. Failures are
returned as *Error; callers log them and carry on. After repeated
failures a circuit breaker skips writes for a cooldown period.

Records:
  - last file and last folder: one absolute path
  - tab list: "ACTIVE:<path>" then one "TAB:<path>|<0|1>" per tab
  - tree expansion, one file per folder base name: relative paths, one per line
  - font size, theme ordinal, tree width: one integer
  - window geometry: "x y w h"
*/
package storage
