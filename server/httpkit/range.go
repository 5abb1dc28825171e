package httpkit

import (
	"errors"
	"strconv"
	"strings"
)

const (
	bytesUnit = "bytes="
)

var (
	ErrMalformedRange     = errors.New("malformed range header")
	ErrUnsatisfiableRange = errors.New("range not satisfiable")
)

func IsBytesRange(header string) bool {
	return strings.HasPrefix(header, bytesUnit)
}

// ParseRange resolves the first span of a bytes range against size, the result is inclusive.
// A missing or invalid start means 0, a missing or invalid end means the last byte.
func ParseRange(header string, size int64) (int64, int64, error) {
	if !IsBytesRange(header) {
		return 0, 0, ErrMalformedRange
	}
	spec := strings.TrimSpace(strings.Split(header[len(bytesUnit):], ",")[0])
	startStr, endStr, _ := strings.Cut(spec, "-")
	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		start = 0
	}
	end, err := strconv.ParseInt(strings.TrimSpace(endStr), 10, 64)
	if err != nil || end < 0 || end > size-1 {
		end = size - 1
	}
	if size <= 0 || start >= size || start > end {
		return 0, 0, ErrUnsatisfiableRange
	}
	return start, end, nil
}
