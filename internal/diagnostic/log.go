package diagnostic

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Verbosity selects how chatty the operational logger is. It is distinct
// from the pipeline's own stdout product (yielded values, IR text, token
// dumps) which cmd/ prints directly regardless of this setting.
type Verbosity int

const (
	Quiet Verbosity = iota
	Default
	Verbose
	VeryVerbose
)

// Log is the package-level logger shared by every pipeline stage for
// operational messages (stage transitions, fatal faults). Pipeline output
// itself is never routed through here.
var Log = logrus.New()

func init() {
	Log.SetLevel(logrus.WarnLevel)
	Log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

// Configure points Log at out (falling back to stderr when out is nil) and
// sets its level from v.
func Configure(v Verbosity, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}
	Log.SetOutput(out)

	switch v {
	case Quiet:
		Log.SetLevel(logrus.ErrorLevel)
	case Default:
		Log.SetLevel(logrus.WarnLevel)
	case Verbose:
		Log.SetLevel(logrus.InfoLevel)
	case VeryVerbose:
		Log.SetLevel(logrus.DebugLevel)
	}
}

// OpenLogFile opens path for append, creating it if necessary, for use with
// Configure's out parameter. The caller owns closing the returned file.
func OpenLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}
