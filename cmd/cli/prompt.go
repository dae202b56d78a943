package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// terminalPassword reads a password from the controlling terminal without echo.
func terminalPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("need -p (stdin is not a terminal)")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ttyConfirmer asks y/N on the terminal. Without a terminal it declines
// unless yes is set.
type ttyConfirmer struct {
	yes bool
	in  io.Reader
	out io.Writer
	// tty reports whether in is interactive; nil means check os.Stdin.
	tty func() bool
}

func (t ttyConfirmer) Confirm(prompt string) bool {
	if t.yes {
		return true
	}
	interactive := t.tty
	if interactive == nil {
		interactive = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	}
	if !interactive() {
		return false
	}
	fmt.Fprintf(t.out, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(t.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
