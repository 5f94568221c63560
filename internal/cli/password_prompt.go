package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var errPasswordMismatch = errors.New("passwords do not match")

// PromptPassword asks for a password twice on a terminal with echo disabled.
func PromptPassword(stdin *os.File, out io.Writer) (string, error) {
	if stdin == nil {
		return "", errors.New("stdin unavailable")
	}
	reader := bufio.NewReader(stdin)

	fmt.Fprint(out, "Password: ")
	first, err := readHiddenLine(stdin, reader)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(out, "Repeat password: ")
	second, err := readHiddenLine(stdin, reader)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	return confirmPassword(first, second)
}

func confirmPassword(first string, second string) (string, error) {
	if first != second {
		return "", errPasswordMismatch
	}
	if first == "" {
		return "", errors.New("password must not be empty")
	}
	return first, nil
}

func readHiddenLine(stdin *os.File, reader *bufio.Reader) (string, error) {
	var line string
	err := withEchoDisabled(stdin, func() error {
		var readErr error
		line, readErr = readLine(reader)
		return readErr
	})
	return line, err
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
