package machinegen

import (
	"bytes"
	"runtime/debug"
)

// RecoverInto converts a panic on the calling goroutine into a coded error
// assigned through errp. Deferred around a single emitter render so one
// faulty renderer cannot take down the rest of the batch:
//
//	defer machinegen.RecoverInto(&err, string(kind), logger)
func RecoverInto(errp *error, kind string, logger Logger) {
	r := recover()
	if r == nil {
		return
	}
	stack := CleanStack(debug.Stack())
	EnsureLogger(logger).Error("recovered emitter panic kind=%s panic=%v\n%s", kind, r, stack)
	if errp != nil {
		*errp = EmitterPanicError(kind, r)
	}
}

// CleanStack drops the recovery plumbing frames from a captured stack trace
// so the first visible frame is the one that panicked.
func CleanStack(stack []byte) []byte {
	lines := bytes.Split(stack, []byte("\n"))
	if len(lines) < 2 {
		return stack
	}
	out := make([][]byte, 0, len(lines))
	out = append(out, lines[0])
	skip := 0
	for _, line := range lines[1:] {
		if skip > 0 {
			skip--
			continue
		}
		if bytes.Contains(line, []byte("runtime/debug.Stack")) ||
			bytes.Contains(line, []byte("machinegen.RecoverInto")) ||
			bytes.Contains(line, []byte("runtime.gopanic")) {
			// each frame is a name line plus a file:line line
			skip = 1
			continue
		}
		out = append(out, line)
	}
	return bytes.Join(out, []byte("\n"))
}
