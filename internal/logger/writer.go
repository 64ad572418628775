package logger

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig configures the rotating log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Output combines the console writer with an optional rotating file.
// A nil console (TUI mode) leaves only the file, or io.Discard when no file is set.
func Output(console io.Writer, file FileConfig) io.Writer {
	var writers []io.Writer
	if console != nil {
		writers = append(writers, console)
	}
	if file.Path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    orDefault(file.MaxSizeMB, 50),
			MaxBackups: orDefault(file.MaxBackups, 5),
			MaxAge:     orDefault(file.MaxAgeDays, 14),
			Compress:   true,
		})
	}

	switch len(writers) {
	case 0:
		return io.Discard
	case 1:
		return writers[0]
	default:
		return io.MultiWriter(writers...)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
