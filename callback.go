package hsm

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// Timing tells whether a callback completes inline or through a channel.
type Timing int

const (
	TimingSynchronous Timing = iota
	TimingAsynchronous
)

func (t Timing) String() string {
	if t == TimingAsynchronous {
		return "async"
	}
	return "sync"
}

// DefaultFunctionDescription labels function literals registered without a description.
var DefaultFunctionDescription = "Function"

// NullString labels a callback or value that is not there.
const NullString = "<null>"

// literalName is the method name recorded for closures.
const literalName = "func"

// InvocationInfo names a user callback (action, guard or selector) in errors,
// logs and GetInfo.
type InvocationInfo struct {
	// MethodName is the bare function name, or "func" for a closure.
	MethodName string
	// Label is the description given at registration, if any.
	Label  string
	Timing Timing
}

// describe records fn under the first non-empty label, if one is given.
func describe(fn any, timing Timing, labels ...string) InvocationInfo {
	info := InvocationInfo{MethodName: functionName(fn), Timing: timing}
	for _, l := range labels {
		if l != "" {
			info.Label = l
			break
		}
	}
	return info
}

// Description is the label if set, DefaultFunctionDescription for closures and
// the method name otherwise.
func (i InvocationInfo) Description() string {
	switch {
	case i.Label != "":
		return i.Label
	case i.MethodName == "":
		return NullString
	case i.MethodName == literalName:
		return DefaultFunctionDescription
	default:
		return i.MethodName
	}
}

// IsAsync reports whether the callback completes through a channel.
func (i InvocationInfo) IsAsync() bool {
	return i.Timing == TimingAsynchronous
}

// closureName matches compiler-generated closure names such as "pkg.Fn.func1" or "pkg.Fn.func1.2".
var closureName = regexp.MustCompile(`\.func\d+(\.\d+)*$`)

// functionName returns the bare name of fn, e.g. "canClose" for
// "example.com/door.(*Door).canClose-fm", or "func" for a closure.
func functionName(fn any) string {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := strings.TrimSuffix(stripTypeArguments(f.Name()), "-fm")
	if closureName.MatchString(name) {
		return literalName
	}
	return name[strings.LastIndexByte(name, '.')+1:]
}

// stripTypeArguments removes bracketed generic instantiations, which may contain dots.
func stripTypeArguments(name string) string {
	var b strings.Builder
	depth := 0
	for _, r := range name {
		switch {
		case r == '[':
			depth++
		case r == ']':
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
