package diag

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults holds the flag values an .env file or the process environment
// can override before command-line flags are parsed. CLI flags always win:
// callers should only apply a Defaults field when its flag was left at its
// zero value.
type Defaults struct {
	BTBSize     uint64
	BTBWays     uint64
	Disassembly bool
}

// builtinDefaults mirrors the hard-coded values the CLI falls back to when
// neither an .env file nor the environment sets them.
var builtinDefaults = Defaults{
	BTBSize: 128,
	BTBWays: 4,
}

// LoadDefaults reads envPath (if it exists) into the process environment via
// godotenv, then reads MIPSPERF_BTB_SIZE, MIPSPERF_BTB_WAYS, and
// MIPSPERF_DISASSEMBLY, falling back to builtinDefaults for anything unset.
// A missing envPath is not an error — the file is optional — but a
// malformed one, or a malformed environment variable, is.
func LoadDefaults(envPath string) (Defaults, error) {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Defaults{}, err
		}
	}

	d := builtinDefaults

	if v, ok := os.LookupEnv("MIPSPERF_BTB_SIZE"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Defaults{}, err
		}
		d.BTBSize = n
	}

	if v, ok := os.LookupEnv("MIPSPERF_BTB_WAYS"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Defaults{}, err
		}
		d.BTBWays = n
	}

	if v, ok := os.LookupEnv("MIPSPERF_DISASSEMBLY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Defaults{}, err
		}
		d.Disassembly = b
	}

	return d, nil
}
