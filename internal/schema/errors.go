package schema

import "fmt"

// ValidationError reports that a payload does not match its declared shape.
// Path uses the JSON field names, e.g. "messages[1].results[0].type".
type ValidationError struct {
	Shape string
	Path  string
	Rule  string
	Param string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Path == "":
		return fmt.Sprintf("invalid %s: %s", e.Shape, e.Rule)
	case e.Param != "":
		return fmt.Sprintf("invalid %s: field %q failed %s=%s", e.Shape, e.Path, e.Rule, e.Param)
	default:
		return fmt.Sprintf("invalid %s: field %q failed %s", e.Shape, e.Path, e.Rule)
	}
}
