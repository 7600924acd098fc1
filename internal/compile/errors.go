package compile

import "fmt"

// SchemaError reports an input CSV whose header is missing a required column.
type SchemaError struct {
	File   string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.File, e.Column)
}

// ValidationError reports a row that cannot become a usable stimulus record.
type ValidationError struct {
	File   string
	Line   int // 1-based, header included
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// ConfigError reports a conversion parameter that cannot be satisfied by the
// given inputs.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}
