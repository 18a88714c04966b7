package terminal

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// resetSequence shows the cursor, clears attributes, leaves the alternate
// screen and turns mouse reporting off.
const resetSequence = "\033[?25h" +
	"\033[0m" +
	"\033[?1049l" +
	"\033[?1000l" +
	"\033[?1002l" +
	"\033[?1003l" +
	"\033[?1006l"

type Capabilities struct {
	Interactive bool
	TermProgram string
}

// DetectCapabilities reports whether out is a terminal the overlay can own.
// LYROVERLAY_PLAIN forces the headless renderer.
func DetectCapabilities(out *os.File) *Capabilities {
	caps := &Capabilities{
		TermProgram: os.Getenv("TERM_PROGRAM"),
	}

	if out != nil {
		fd := out.Fd()
		caps.Interactive = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	if os.Getenv("TERM") == "dumb" {
		caps.Interactive = false
	}

	switch os.Getenv("LYROVERLAY_PLAIN") {
	case "1", "true", "yes", "on":
		caps.Interactive = false
	}

	return caps
}

// Reset puts the terminal back into a usable state after an abnormal exit.
func Reset(w io.Writer) {
	_, _ = io.WriteString(w, resetSequence)
	if f, ok := w.(*os.File); ok {
		_ = f.Sync()
	}
}
