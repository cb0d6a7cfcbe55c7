// Package stacktrace renders short, repository-relative call stacks for logs.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const maxDepth = 32

// Frames returns the call stack of its caller as "internal/<path>.go:<line>"
// entries, keeping only frames that belong to this module's internal tree.
// skip drops that many additional frames above the caller.
func Frames(skip int) []string {
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		f, more := frames.Next()
		if _, rel, ok := strings.Cut(f.File, "/internal/"); ok {
			out = append(out, "internal/"+rel+":"+strconv.Itoa(f.Line))
		}
		if !more {
			break
		}
	}

	return out
}
