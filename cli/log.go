package cli

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/choixe-lang/choixe/log"
)

type logConfig struct {
	Level  string `default:"warn" enum:"trace,debug,info,warn,error" help:"Set log level."`
	Format string `default:"text" enum:"text,json"                   help:"Set log format."`
	Pretty bool   `default:"false"                                   help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// make builds the logger every command logs through. Output goes to
// stderr so evaluated configurations on stdout stay machine-readable.
func (f *logConfig) make() log.Logger {
	return log.Make(os.Stderr,
		log.WithLevel(log.ParseLevel(f.Level)),
		log.WithFormat(log.ParseFormat(f.Format)),
		log.WithPretty(f.Pretty),
	)
}
