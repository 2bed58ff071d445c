package preflight

import "fmt"

// Policy controls how a mislabeled 24-bit source is handled.
type Policy int

const (
	// PolicyIgnore proceeds without touching the tracker record.
	PolicyIgnore Policy = iota
	// PolicyPrompt asks the operator before correcting.
	PolicyPrompt
	// PolicyAuto always corrects the tracker record.
	PolicyAuto
)

// ParsePolicy maps the config value onto a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch value {
	case "ignore":
		return PolicyIgnore, nil
	case "prompt":
		return PolicyPrompt, nil
	case "auto":
		return PolicyAuto, nil
	default:
		return PolicyIgnore, fmt.Errorf("unknown bit depth policy %q", value)
	}
}

func (p Policy) String() string {
	switch p {
	case PolicyPrompt:
		return "prompt"
	case PolicyAuto:
		return "auto"
	default:
		return "ignore"
	}
}
