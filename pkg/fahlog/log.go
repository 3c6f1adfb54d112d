// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fahlog

import (
	"bufio"
	"io"
	"os"
)

// Read classifies and interprets a whole log stream in one pass.
func Read(gen Generation, r io.Reader) (*RunHistory, error) {
	scanner := bufio.NewScanner(r)
	// FAHlog.txt lines are short, but a corrupted file should not kill the
	// scan; allow lines up to 1 MiB.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []LogLine
	index := 0
	for scanner.Scan() {
		lines = append(lines, Classify(gen, index, scanner.Text()))
		index++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return Interpret(lines), nil
}

// ReadFile reads and interprets a log file from disk.
func ReadFile(gen Generation, path string) (*RunHistory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(gen, f)
}
