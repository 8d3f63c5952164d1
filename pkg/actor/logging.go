package actor

import "github.com/lguibr/actorcore/internal/alog"

// log is this package's logger, disabled until a caller installs a real
// backend via UseLogger, matching the teacher's per-package logging
// convention.
var log = alog.Disabled

// UseLogger installs l as this package's logger.
func UseLogger(l alog.Logger) {
	log = l
}
