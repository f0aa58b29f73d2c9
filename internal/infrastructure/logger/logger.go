package logger

import (
	"io"
	"log"
	"os"
)

var (
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
	Debug *log.Logger
)

func init() {
	logFlags := log.Ldate | log.Ltime | log.LUTC

	Info = log.New(os.Stderr, "INFO: ", logFlags)
	Warn = log.New(os.Stderr, "WARN: ", logFlags)
	Error = log.New(os.Stderr, "ERROR: ", logFlags)

	debugOut := io.Discard
	if os.Getenv("GIFFORGE_DEBUG") != "" {
		debugOut = os.Stderr
	}
	Debug = log.New(debugOut, "DEBUG: ", logFlags|log.Lshortfile)
}
