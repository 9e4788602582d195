package model

import (
	"fmt"
	"strings"
)

// Label is the verdict assigned to a piece of news text
type Label string

const (
	LabelFake Label = "FAKE"
	LabelReal Label = "REAL"
)

// LabelForClass maps a classifier class index to its label (0 = FAKE, 1 = REAL)
func LabelForClass(class int) (Label, error) {
	switch class {
	case 0:
		return LabelFake, nil
	case 1:
		return LabelReal, nil
	default:
		return "", fmt.Errorf("unknown class index %d", class)
	}
}

// ParseLabel parses a case-insensitive label string
func ParseLabel(s string) (Label, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(LabelFake):
		return LabelFake, nil
	case string(LabelReal):
		return LabelReal, nil
	default:
		return "", fmt.Errorf("unknown label %q", s)
	}
}

// Class returns the classifier class index for the label
func (l Label) Class() int {
	if l == LabelReal {
		return 1
	}
	return 0
}

func (l Label) String() string { return string(l) }
