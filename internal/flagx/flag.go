// Package flagx helps several independent flag sets share one command line.
package flagx

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// FilterArgs keeps only the arguments belonging to allowedFlags, so a
// FlagSet that knows a subset of the command line can parse it without
// failing on flags owned by someone else.
//
// Both "-f value" and "-f=value" forms are recognised. A following token
// is taken as the value unless it starts with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = true
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, hasValue := strings.Cut(arg, "="); hasValue {
			if allowed[name] {
				filtered = append(filtered, arg)
			}
			continue
		}

		if !allowed[arg] {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			filtered = append(filtered, args[i])
		}
	}

	return filtered
}

// ConfigFilePath returns the JSON config path given with -c or -config,
// or "" when neither is present. When both appear the last one wins.
// A flag without a value is an error.
func ConfigFilePath(args []string) (string, error) {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	if err := fs.Parse(FilterArgs(args, []string{"-c", "-config"})); err != nil {
		return "", fmt.Errorf("config file flag: %w", err)
	}

	return path, nil
}
