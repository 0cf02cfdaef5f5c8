package util

import (
	"encoding/json"
	"os"
)

// Exists returns true if the filename exists
func Exists(fn string) bool {
	if _, err := os.Stat(fn); os.IsNotExist(err) {
		return false
	}
	return true
}

// SliceContains returns true if the slice contains the value.
func SliceContains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}

// JSONStringify returns a JSON encoded string from an object, ignoring
// encode errors.
func JSONStringify(val any) string {
	buf, _ := json.Marshal(val)
	return string(buf)
}
