// Package main exports the extraction library behind a C ABI, built with
//
//	go build -buildmode=c-shared -o libharvest.so ./cshared
//
// The boundary is deliberately thin: compile a spec into an opaque handle,
// evaluate the handle against raw HTML, and release what you were given.
// The exported functions only convert between C and Go types; the boundary
// logic itself lives in bridge.go.
//
// Ownership rules (preconditions, not recoverable errors):
//   - every handle returned by harvest_compile must be released exactly once
//     via harvest_release; passing a released or foreign handle is undefined
//     behavior
//   - every string returned through an out parameter is owned by the caller
//     and must be released exactly once via harvest_release_string
//
// All internal failures collapse to HARVEST_INVALID_ARGS; no error detail
// crosses the boundary.
package main

/*
#include <stdint.h>
#include <stdlib.h>

// Wire formats for spec input and result output.
enum {
	HARVEST_FORMAT_JSON = 0,
	HARVEST_FORMAT_TOML = 1
};

// Result codes.
enum {
	HARVEST_OK = 0,
	HARVEST_INVALID_ARGS = 1
};
*/
import "C"

import "unsafe"

//export harvest_compile
func harvest_compile(spec *C.char, format C.int, out *C.uintptr_t) C.int {
	if spec == nil || out == nil {
		return C.HARVEST_INVALID_ARGS
	}
	handle, code := compileHandle(C.GoString(spec), int(format))
	if code != codeOK {
		return C.int(code)
	}
	*out = C.uintptr_t(handle)
	return C.HARVEST_OK
}

//export harvest_release
func harvest_release(handle C.uintptr_t) {
	releaseHandle(uintptr(handle))
}

//export harvest_extract_document
func harvest_extract_document(document *C.char, handle C.uintptr_t, format C.int, out **C.char) C.int {
	return extractToC(document, handle, format, out, true)
}

//export harvest_extract_fragment
func harvest_extract_fragment(fragment *C.char, handle C.uintptr_t, format C.int, out **C.char) C.int {
	return extractToC(fragment, handle, format, out, false)
}

//export harvest_release_string
func harvest_release_string(s *C.char) {
	C.free(unsafe.Pointer(s))
}

func extractToC(input *C.char, handle C.uintptr_t, format C.int, out **C.char, asDocument bool) C.int {
	if input == nil || out == nil {
		return C.HARVEST_INVALID_ARGS
	}
	encoded, code := extractHandle(C.GoString(input), uintptr(handle), int(format), asDocument)
	if code != codeOK {
		return C.int(code)
	}
	*out = C.CString(encoded)
	return C.HARVEST_OK
}

func main() {}
