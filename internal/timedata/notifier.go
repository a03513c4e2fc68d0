package timedata

import "github.com/maximewewer/timedata/pkg/logger"

// Severity classifies a user notification
type Severity string

// SeverityWarning is the only severity the service emits
const SeverityWarning Severity = "warning"

// Notifier delivers a message to the operator
type Notifier interface {
	Notify(message string, severity Severity)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(message string, severity Severity)

// Notify calls f
func (f NotifierFunc) Notify(message string, severity Severity) { f(message, severity) }

// LogNotifier writes notifications to the log at warning level
type LogNotifier struct{}

// Notify logs the message
func (LogNotifier) Notify(message string, severity Severity) {
	logger.SafeWarn("notify", message, map[string]interface{}{
		"severity": string(severity),
	})
}

// MultiNotifier fans a notification out to several notifiers
type MultiNotifier []Notifier

// Notify delivers to every notifier in order
func (m MultiNotifier) Notify(message string, severity Severity) {
	for _, n := range m {
		n.Notify(message, severity)
	}
}
