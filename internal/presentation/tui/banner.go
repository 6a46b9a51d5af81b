package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintHeader writes a one-line colored header, plain when w is not a terminal.
func PrintHeader(w io.Writer, version, subject string) {
	out := termenv.NewOutput(w)
	name := out.String(" gatehook ").Foreground(out.Color("#f8fafc")).Background(out.Color("#6366f1")).Bold()
	ver := out.String(version).Foreground(out.Color("#a78bfa"))
	subj := out.String(subject).Foreground(out.Color("#f472b6"))
	fmt.Fprintf(w, "%s %s  %s\n\n", name, ver, subj)
}
