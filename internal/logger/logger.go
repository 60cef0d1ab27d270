package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"
)

type Level int

const (
	INFO Level = iota
	WARN
	ERROR
	SUCCESS
	DEBUG
)

func (l Level) String() string {
	switch l {
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case SUCCESS:
		return "SUCCESS"
	case DEBUG:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

var verbose atomic.Bool

func Init(out io.Writer, debug bool) {
	if out == nil {
		out = os.Stderr
	}
	log.SetOutput(out)
	log.SetFlags(0)
	verbose.Store(debug)
}

// Log writes one line in the form "[ts] LEVEL   :: message :: extras".
// DEBUG lines are dropped unless Init was called with debug enabled.
func Log(level Level, message string, extras ...interface{}) {
	if level == DEBUG && !verbose.Load() {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	levelStr := fmt.Sprintf("%-7s", level)
	logMessage := fmt.Sprintf("[%s] %s :: %s", timestamp, levelStr, message)

	if len(extras) > 0 {
		logMessage += " :: " + fmt.Sprint(extras...)
	}

	log.Println(logMessage)
}
