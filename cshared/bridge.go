package main

import (
	"runtime/cgo"

	"harvest/internal/extract"
)

// Result codes and wire formats, mirrored by the enums in the C preamble
// and include/harvest.h.
const (
	codeOK          = 0
	codeInvalidArgs = 1

	formatJSON = 0
	formatTOML = 1
)

// compileHandle parses and compiles a spec document, returning an opaque
// handle on success. The handle owns the compiled form until releaseHandle.
//
// All failure detail collapses to codeInvalidArgs; nothing more crosses the
// boundary.
func compileHandle(spec string, format int) (uintptr, int) {
	f, ok := wireFormat(format)
	if !ok {
		return 0, codeInvalidArgs
	}

	s, err := extract.ParseSpec([]byte(spec), f)
	if err != nil {
		return 0, codeInvalidArgs
	}
	compiled, err := extract.Compile(s)
	if err != nil {
		return 0, codeInvalidArgs
	}

	return uintptr(cgo.NewHandle(compiled)), codeOK
}

// releaseHandle invalidates a handle returned by compileHandle. Releasing a
// handle twice, or a value that never was a handle, is a precondition
// violation.
func releaseHandle(handle uintptr) {
	cgo.Handle(handle).Delete()
}

// extractHandle evaluates a compiled handle against raw HTML, parsed as a
// document or as a fragment, and encodes the result in the requested
// format.
func extractHandle(input string, handle uintptr, format int, asDocument bool) (string, int) {
	if handle == 0 {
		return "", codeInvalidArgs
	}
	f, ok := wireFormat(format)
	if !ok {
		return "", codeInvalidArgs
	}
	compiled, ok := cgo.Handle(handle).Value().(*extract.Compiled)
	if !ok {
		return "", codeInvalidArgs
	}

	var (
		value extract.Value
		err   error
	)
	if asDocument {
		value, err = compiled.ExtractDocument(input)
	} else {
		value, err = compiled.ExtractFragment(input)
	}
	if err != nil {
		return "", codeInvalidArgs
	}

	encoded, err := extract.EncodeValue(value, f)
	if err != nil {
		return "", codeInvalidArgs
	}
	return string(encoded), codeOK
}

func wireFormat(format int) (extract.Format, bool) {
	switch format {
	case formatJSON:
		return extract.JSON, true
	case formatTOML:
		return extract.TOML, true
	default:
		return 0, false
	}
}
