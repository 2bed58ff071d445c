package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// consolePrompter handles the interactive paths: alternate source locations
// and bit-depth reclassification confirmations. Without a terminal every
// question answers conservatively (abandon, do not correct).
type consolePrompter struct {
	in  *bufio.Reader
	tty bool
}

func newConsolePrompter() *consolePrompter {
	return &consolePrompter{
		in:  bufio.NewReader(os.Stdin),
		tty: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
}

// AlternatePath implements source.Prompter.
func (p *consolePrompter) AlternatePath(display, missing string) (string, error) {
	if !p.tty {
		return "", nil
	}
	fmt.Fprintf(os.Stderr, "%s: source not found at %q\n", display, missing)
	fmt.Fprint(os.Stderr, "enter an alternate path (empty to skip): ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(line), nil
}

// ConfirmReclassify implements preflight.Confirmer.
func (p *consolePrompter) ConfirmReclassify(display string, torrentID int64) (bool, error) {
	if !p.tty {
		return false, nil
	}
	fmt.Fprintf(os.Stderr, "%s (torrent %d) is 24-bit but not labeled as such. Correct the tracker record? [y/N]: ", display, torrentID)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
