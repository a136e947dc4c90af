package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/drunlade/go-pap/pap"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ui renders transfer feedback. Progress goes to errOut: an animated bar
// when it is a terminal, plain lines in verbose mode otherwise.
type ui struct {
	out     io.Writer
	errOut  io.Writer
	quiet   bool
	verbose bool
	tty     bool
	bar     progress.Model
	drawn   bool
}

func newUI(out, errOut io.Writer, quiet, verbose bool) *ui {
	return &ui{
		out:     out,
		errOut:  errOut,
		quiet:   quiet,
		verbose: verbose,
		tty:     isTerminal(errOut),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (u *ui) callbacks() *pap.Callbacks {
	return &pap.Callbacks{
		OnFileStart: func(name string, size int64) {
			if u.quiet {
				return
			}
			if size > 0 {
				u.verbosef("Starting: %s (%s)\n", name, humanBytes(size))
			} else {
				u.verbosef("Starting: %s\n", name)
			}
		},
		OnProgress: func(name string, transferred, total int64, rate float64) {
			if u.quiet {
				return
			}
			switch {
			case u.tty && total > 0:
				frac := float64(transferred) / float64(total)
				fmt.Fprintf(u.errOut, "\r%s %s", u.bar.ViewAs(frac), dimStyle.Render(humanBytes(transferred)+"/"+humanBytes(total)))
				u.drawn = true
			case u.tty:
				fmt.Fprintf(u.errOut, "\r%s received %s", name, dimStyle.Render(humanBytes(transferred)))
				u.drawn = true
			case u.verbose:
				fmt.Fprintf(u.errOut, "%s: %s (%s/s)\n", name, humanBytes(transferred), humanBytes(int64(rate)))
			}
		},
		OnFileComplete: func(name string, n int64, d time.Duration) {
			if u.quiet {
				return
			}
			if u.drawn {
				fmt.Fprintln(u.errOut)
				u.drawn = false
			}
			u.verbosef("Completed: %s (%d bytes in %v)\n", name, n, d.Round(time.Millisecond))
		},
	}
}

func (u *ui) verbosef(format string, args ...interface{}) {
	if u.verbose && !u.quiet {
		fmt.Fprintf(u.errOut, format, args...)
	}
}

func (u *ui) warnf(format string, args ...interface{}) {
	if !u.quiet {
		fmt.Fprintln(u.errOut, dimStyle.Render(fmt.Sprintf(format, args...)))
	}
}

func (u *ui) success(format string, args ...interface{}) {
	if u.quiet {
		return
	}
	fmt.Fprintln(u.out, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
