package utils

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"unicode/utf8"

	"stock-dynamic/pkg/logger"
)

func ToPointer[T any](value T) *T {
	return &value
}

func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		pc, _, _, ok := runtime.Caller(1)
		funcName := "unknown"
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				parts := strings.Split(fn.Name(), "/")
				funcName = parts[len(parts)-1]
			}
		}

		log.Warn("Context cancelled",
			logger.StringField("caller", funcName),
		)
		return false
	default:
		return true
	}
}

// FormatFloat prints the shortest representation, e.g. 2 not 2.000000.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ChunkString splits s into pieces of at most size bytes, cutting on line breaks when possible.
func ChunkString(s string, size int) []string {
	if size <= 0 || len(s) <= size {
		return []string{s}
	}
	var chunks []string
	for len(s) > size {
		cut := strings.LastIndex(s[:size], "\n")
		if cut <= 0 {
			cut = size
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
			if cut == 0 {
				cut = size
			}
		}
		chunks = append(chunks, s[:cut])
		s = strings.TrimPrefix(s[cut:], "\n")
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// FormatHours renders an hour count the way the report file names expect:
// whole numbers keep one decimal ("2.0"), fractions keep their digits ("0.25").
func FormatHours(hours float64) string {
	s := FormatFloat(hours)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
