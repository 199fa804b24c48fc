package utils

import (
	"os"
	"strconv"

	"go.viam.com/dbcbs/logging"
)

// ParallelFactorEnvVar overrides the worker count used by GroupWorkParallel.
const ParallelFactorEnvVar = "DBCBS_PARALLEL_FACTOR"

// GetenvInt returns the integer value of the environment variable, or def when it is unset or
// not a valid integer.
func GetenvInt(v string, def int) int {
	val, exists := os.LookupEnv(v)
	if !exists {
		return def
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		logging.Global().Warnw("invalid integer in environment, using default", "name", v, "value", val, "default", def)
		return def
	}
	return num
}
