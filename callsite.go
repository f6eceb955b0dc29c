package rlog

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// CallSite is the source location of a logging call
type CallSite struct {
	File     string
	Function string
	Line     int
}

// String returns "file:line"
func (c CallSite) String() string {
	if c.File == "" {
		return "(unknown)"
	}
	return fmt.Sprintf("%s:%d", filepath.Base(c.File), c.Line)
}

// Here captures the call site of its caller.
// Use with LogAt when logging through a wrapper.
func Here() CallSite {
	return Caller(1)
}

// Caller captures the call site skip frames above its caller
func Caller(skip int) CallSite {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return CallSite{}
	}
	site := CallSite{File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		site.Function = shortFuncName(fn.Name())
	}
	return site
}

// shortFuncName strips the package path from a qualified function name and
// names closures by their enclosing function
func shortFuncName(qualified string) string {
	funcName := filepath.Base(qualified)
	parts := strings.Split(funcName, ".")
	if len(parts) < 2 {
		return funcName
	}
	parts = parts[1:] // drop package

	lastPart := parts[len(parts)-1]
	if strings.HasPrefix(lastPart, "func") && len(lastPart) > 4 {
		isAnonymous := true
		for _, r := range lastPart[4:] {
			if !unicode.IsDigit(r) {
				isAnonymous = false
				break
			}
		}
		if isAnonymous && len(parts) > 1 {
			return fmt.Sprintf("(anonymous in %s)", strings.Join(parts[:len(parts)-1], "."))
		}
	}
	return strings.Join(parts, ".")
}
