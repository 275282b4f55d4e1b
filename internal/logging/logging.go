package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath builds a session log file path using OS-appropriate path
// separators.
func LogFilePath(logsDir, service string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", service, sessionStart.Format("20060102_150405")),
	)
}
