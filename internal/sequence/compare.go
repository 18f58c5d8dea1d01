package sequence

import "fmt"

// Mismatch is a position where the received value differs from the expected one
type Mismatch struct {
	Index    int
	Received int
	Expected int
}

func (m Mismatch) String() string {
	return fmt.Sprintf("Mismatch at index %d: received %d, expected %d", m.Index, m.Received, m.Expected)
}

// Report is the outcome of comparing a received sequence with the expected one
type Report struct {
	Mismatches []Mismatch
	Received   int // length of the received sequence
	Expected   int // length of the expected sequence
}

// Compare walks both sequences index by index up to the shorter length.
// Values past that point are never compared, so a truncated or empty
// received sequence reports no mismatches; LengthMismatch exposes that case.
func Compare(received, expected []int) *Report {
	report := &Report{
		Received: len(received),
		Expected: len(expected),
	}

	n := len(received)
	if len(expected) < n {
		n = len(expected)
	}
	for i := 0; i < n; i++ {
		if received[i] != expected[i] {
			report.Mismatches = append(report.Mismatches, Mismatch{
				Index:    i,
				Received: received[i],
				Expected: expected[i],
			})
		}
	}
	return report
}

// LengthMismatch reports whether the compared sequences differ in length
func (r *Report) LengthMismatch() bool {
	return r.Received != r.Expected
}

// OK is the strict verdict: no mismatching pairs and equal lengths
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0 && !r.LengthMismatch()
}
