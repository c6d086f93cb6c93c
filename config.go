package shuffle

import s "github.com/prataprc/gosettings"

// Settings configures a Transport. It aliases gosettings.Settings so
// embedders can compose it with whatever configuration source (flags,
// file, env) their own gosettings-based stack already uses.
type Settings = s.Settings

// DefaultSettings returns the baseline configuration for a Transport:
// pool sizing, channel depth, batching and logging. Callers override
// individual keys before passing the result to NewTransport.
func DefaultSettings() Settings {
	return Settings{
		"buffersize": uint64(32 * 1024),
		"poolsize":   uint64(256),
		"chansize":   uint64(4096),
		"batchsize":  uint64(16),
		"log.level":  "info",
		"log.file":   "",
		"flush.ms":   uint64(0),
	}
}
