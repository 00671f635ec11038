package httpapi

import (
	"errors"
	"net/http"

	"github.com/lirsacc/crible/internal/executor"
	"github.com/lirsacc/crible/internal/expr"
	"github.com/lirsacc/crible/internal/index"
)

// statusFor maps an operation/parse error to the HTTP status code
// prescribed by spec.md §6/§7: 4xx for parse, schema, lookup, mode and
// capacity errors; 500 for everything else (backend I/O, worker panics).
func statusFor(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	var parseErr *expr.ParseError
	if errors.As(err, &parseErr) {
		return http.StatusBadRequest, "invalid query"
	}

	var propErr *index.PropertyDoesNotExistError
	if errors.As(err, &propErr) {
		return http.StatusBadRequest, propErr.Error()
	}

	switch {
	case errors.Is(err, executor.ErrReadOnly):
		return http.StatusForbidden, "server is in read-only mode"
	case errors.Is(err, executor.ErrTooManyRequests):
		return http.StatusTooManyRequests, ""
	default:
		return http.StatusInternalServerError, ""
	}
}
