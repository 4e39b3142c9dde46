// Package log is the levelled logger used across mudra.
package log

import (
	"strings"

	"github.com/tacusci/logging/v2"
)

var Debug = func(format string, a ...interface{}) {
	logging.Debug(format, a...) //nolint
}

var Info = func(format string, a ...interface{}) {
	logging.Info(format, a...) //nolint
}

var Warn = func(format string, a ...interface{}) {
	logging.Warn(format, a...) //nolint
}

var Error = func(format string, a ...interface{}) {
	logging.Error(format, a...) //nolint
}

var Fatal = func(format string, a ...interface{}) {
	logging.Fatal(format, a...) //nolint
}

// SetLevel switches the global logging level by name. Unknown names fall
// back to warn.
func SetLevel(name string) {
	logging.ColorLogLevelLabelOnly = true
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "silent", "off":
		logging.SetLevel(logging.SilentLevel)
	case "debug":
		logging.SetLevel(logging.DebugLevel)
		logging.CallbackLabel = true
		logging.CallbackLabelLevel = 4
	case "info":
		logging.SetLevel(logging.InfoLevel)
	default:
		logging.SetLevel(logging.WarnLevel)
	}
}
