package model

import "fmt"

// GlyphSize is the side length of the classifier's square input.
const GlyphSize = 28

// DefaultLabels are the digits 0-9 followed by A-Z, index-aligned with the classifier output.
var DefaultLabels = func() LabelSpace {
	labels := make(LabelSpace, 0, 36)
	for c := '0'; c <= '9'; c++ {
		labels = append(labels, string(c))
	}
	for c := 'A'; c <= 'Z'; c++ {
		labels = append(labels, string(c))
	}
	return labels
}()

// LabelSpace maps classifier output indices to symbols.
type LabelSpace []string

func NewLabelSpace(classes []string) (LabelSpace, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("label space is empty")
	}
	seen := make(map[string]struct{}, len(classes))
	for i, c := range classes {
		if c == "" {
			return nil, fmt.Errorf("label %d is empty", i)
		}
		if _, dup := seen[c]; dup {
			return nil, fmt.Errorf("label %q appears more than once", c)
		}
		seen[c] = struct{}{}
	}
	return append(LabelSpace(nil), classes...), nil
}

func (l LabelSpace) At(i int) (string, error) {
	if i < 0 || i >= len(l) {
		return "", fmt.Errorf("label index %d out of range [0,%d)", i, len(l))
	}
	return l[i], nil
}
