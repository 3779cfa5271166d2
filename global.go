package throttle

import "sync"

var (
	globalOnce sync.Once
	global     *Scheduler
)

// Global returns the process wide scheduler. The first call creates it using
// the received configuration (or the defaults), the later ones return the
// same scheduler and ignore the configuration.
//
// Prefer creating a scheduler with New and passing it explicitly, Global is
// for the call sites that just need a shared default.
func Global(cfg ...Config) *Scheduler {
	created := false
	globalOnce.Do(func() {
		var c Config
		if len(cfg) > 0 {
			c = cfg[0]
		}
		global = New(c)
		created = true
	})

	if !created && len(cfg) > 0 {
		global.log.Debug().Msg("global scheduler already created, configuration ignored")
	}

	return global
}
