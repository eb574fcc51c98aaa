package utils

import (
	"os"
	"strings"
)

// ContainsString returns true iff the provided string slice hay contains string
// needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

// ContainsStringIgnoreCase is ContainsString with case folding on both sides.
func ContainsStringIgnoreCase(hay []string, needle string) bool {
	for _, str := range hay {
		if strings.EqualFold(str, needle) {
			return true
		}
	}
	return false
}

func IsProdEnv() bool {
	return os.Getenv("GEOMUX_ENV") == "prod"
}
