package slogpretty

import (
	"os"

	"github.com/acarl005/stripansi"
)

// StripWriter mirrors the pretty handler's output into a file with ANSI
// color sequences removed.
type StripWriter struct {
	File *os.File
}

func (w *StripWriter) Write(p []byte) (int, error) {
	if _, err := w.File.WriteString(stripansi.Strip(string(p))); err != nil {
		return 0, err
	}
	// report the original length so MultiWriter stays in sync
	return len(p), nil
}
