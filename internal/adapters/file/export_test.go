package file

// SetReadFile replaces the record reader until the returned func is called.
func SetReadFile(fn func(string) ([]byte, error)) (restore func()) {
	prev := readFile
	readFile = fn
	return func() { readFile = prev }
}

// ReapStaleLock exposes stale lock recovery.
var ReapStaleLock = reapStale
