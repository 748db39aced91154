// Package cli holds the command line plumbing shared by all commands.
package cli

import (
	"errors"
	"io/fs"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// EnvFile is loaded before flags are parsed, so its values reach env tags.
const EnvFile = ".env"

// Parse loads EnvFile, parses the command line into opts and exits on help or
// errors, the way every command does it.
func Parse(opts any) *flags.Parser {
	if err := LoadEnv(EnvFile); err != nil {
		_, _ = os.Stderr.WriteString("Error loading " + EnvFile + ": " + err.Error() + "\n")
		os.Exit(1)
	}

	parser := flags.NewParser(opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	return parser
}

// LoadEnv loads variables from files that exist. Variables already set in the
// environment win. Missing files are ignored.
func LoadEnv(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		existing = append(existing, f)
	}
	if len(existing) == 0 {
		return nil
	}

	return godotenv.Load(existing...)
}

// Explicit reports whether the option with the given long name was set on the
// command line or through its environment variable, as opposed to falling
// back to its default.
func Explicit(p *flags.Parser, long string) bool {
	opt := p.FindOptionByLongName(long)
	if opt == nil {
		return false
	}
	if opt.IsSet() && !opt.IsSetDefault() {
		return true
	}
	if opt.EnvDefaultKey != "" {
		if _, ok := os.LookupEnv(opt.EnvDefaultKey); ok {
			return true
		}
	}
	return false
}
