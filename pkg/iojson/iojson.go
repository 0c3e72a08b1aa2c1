// iojson are utilities for reading and writing JSON IO from a
// command line interface perspective
package iojson

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// WriteLine writes obj to w as a single compact JSON line.
func WriteLine(w io.Writer, obj any) error {
	bits, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// DecodeLines decodes a stream of newline-delimited JSON objects into a
// slice. Blank lines are skipped; a malformed line fails the whole read with
// its line number.
func DecodeLines[T any](r io.Reader) ([]T, error) {
	var out []T

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}

		var item T
		if err := json.Unmarshal(text, &item); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", line, err)
		}
		out = append(out, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return out, nil
}
