package logs

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
)

// logEntry is a single rendered log line queued to a Backend's writeChan.
type logEntry struct {
	level Level
	log   []byte
}

// Logger writes log messages for one subsystem to a shared Backend.
type Logger struct {
	level     Level
	subsystem string
	b         *Backend
	writeChan chan logEntry
}

// Backend returns the Backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.b
}

// SetLevel changes the logger's reporting level.
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

// Level returns the logger's current reporting level.
func (l *Logger) Level() Level {
	return l.level
}

func (l *Logger) write(level Level, s string) {
	if level < l.level {
		return
	}
	now := time.Now().Format("2006-01-02 15:04:05.000")
	prefix := fmt.Sprintf("%s [%s] %s: ", now, level, l.subsystem)
	if l.b.flag&(LogFlagLongFile|LogFlagShortFile) != 0 {
		_, file, line, ok := runtime.Caller(3)
		if ok {
			if l.b.flag&LogFlagShortFile != 0 {
				if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
					file = file[idx+1:]
				}
			}
			prefix += fmt.Sprintf("%s:%d ", file, line)
		}
	}
	line := prefix + s
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	select {
	case l.writeChan <- logEntry{level: level, log: []byte(line)}:
	default:
		// Backend isn't running (e.g. in tests); fall back to stderr so
		// nothing is silently lost.
		fmt.Fprint(os.Stderr, line)
	}
}

// Tracef formats and logs a message at the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.write(LevelTrace, fmt.Sprintf(format, args...))
}

// Debugf formats and logs a message at the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.write(LevelDebug, fmt.Sprintf(format, args...))
}

// Infof formats and logs a message at the info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf formats and logs a message at the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.write(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf formats and logs a message at the error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, fmt.Sprintf(format, args...))
}

// Criticalf formats and logs a message at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, fmt.Sprintf(format, args...))
}
