package expr

import "fmt"

// ParseError reports why a query string failed to parse, along with the byte
// offset at which the parser gave up.
type ParseError struct {
	Msg    string
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("expr: %s (at offset %d)", e.Msg, e.Offset)
}

func newParseError(offset int, format string, args ...interface{}) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Offset: offset}
}

// MaxQueryLength is the hard cap on the number of bytes accepted by Parse.
// Rejecting oversized input before scanning a single byte bounds worst-case
// parse latency independent of what a caller sends.
const MaxQueryLength = 2048
