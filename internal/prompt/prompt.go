package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Confirm prints question and reads a single answer. A terminal is switched
// to raw mode so one keystroke answers; other readers are consumed up to the
// first newline. Only a leading 'y' or 'Y' counts as yes, and an empty input
// is a no.
func Confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprint(out, question)

	var key byte
	var err error
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		key, err = readKey(f)
		fmt.Fprintln(out)
	} else {
		key, err = readLine(in)
	}
	if err != nil {
		return false, err
	}
	return key == 'y' || key == 'Y', nil
}

func readKey(f *os.File) (byte, error) {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return 0, fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(fd, state)

	buf := make([]byte, 1)
	if _, err := f.Read(buf); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}
	return buf[0], nil
}

func readLine(in io.Reader) (byte, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, err
	}
	if line == "" {
		return 0, nil
	}
	return line[0], nil
}
