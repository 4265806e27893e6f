package main

import (
	"bufio"
	"io"
	"strings"
)

// readFENs reads one FEN per line. Blank lines and lines starting with #
// are skipped; surrounding whitespace is dropped.
func readFENs(r io.Reader) ([]string, error) {
	var fens []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fens = append(fens, line)
	}
	return fens, scanner.Err()
}
