package logging

import "fmt"

// Message renders a log line. A format without args is returned as is, so
// messages that contain a literal '%' survive.
func Message(format string, args []interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
