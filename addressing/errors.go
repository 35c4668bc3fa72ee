package addressing

import "fmt"

// FormatError reports address text that violates the grammar of its family.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid address [[%s]]: %s", e.Input, e.Reason)
}

// SemanticError reports an address that parses but fails a validity check.
type SemanticError struct {
	Input  string
	Reason string
}

func (e *SemanticError) Error() string {
	return fmt.Sprintf("address rejected [[%s]]: %s", e.Input, e.Reason)
}
