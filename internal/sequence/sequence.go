// Package sequence implements the one payload the tools exchange: the ordered
// integers 1..N, serialized as decimal ASCII text with one value per line.
package sequence

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// RequestToken is the datagram payload that triggers a UDP burst
	RequestToken = "GET DATA"
	// MaxDatagramSize is the receive buffer size used on both UDP ends
	MaxDatagramSize = 1024
)

// ErrMalformed is returned when a received line is not a decimal integer
var ErrMalformed = errors.New("malformed sequence line")

// Expected returns the canonical sequence 1..n
func Expected(n int) []int {
	if n < 1 {
		return []int{}
	}
	values := make([]int, n)
	for i := range values {
		values[i] = i + 1
	}
	return values
}

// Line returns the wire form of a single value
func Line(i int) []byte {
	return AppendLine(nil, i)
}

// AppendLine appends the wire form of i to dst
func AppendLine(dst []byte, i int) []byte {
	dst = strconv.AppendInt(dst, int64(i), 10)
	return append(dst, '\n')
}

// Write writes "1\n2\n...\nn\n" to w
func Write(w io.Writer, n int) error {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}

	buf := make([]byte, 0, 24)
	for i := 1; i <= n; i++ {
		buf = AppendLine(buf[:0], i)
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("failed to write value %d: %w", i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sequence: %w", err)
	}
	return nil
}

// ParseChunk splits a received payload on line boundaries and parses every
// line as an integer. An empty payload yields no values.
func ParseChunk(b []byte) ([]int, error) {
	values := make([]int, 0, bytes.Count(b, []byte{'\n'})+1)

	scanner := bufio.NewScanner(bytes.NewReader(b))
	scanner.Buffer(make([]byte, 0, 64), len(b)+1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		v, err := strconv.Atoi(line)
		if err != nil {
			return values, fmt.Errorf("%w: %q", ErrMalformed, scanner.Text())
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return values, err
	}
	return values, nil
}
