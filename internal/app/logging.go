package app

import (
	"io"
	"log"
)

// SetupLogging configures the standard logger with microsecond stamps.
func SetupLogging(w io.Writer, prefix string) {
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if prefix != "" {
		log.SetPrefix(prefix + " ")
	}
}
