// Command libgoasan builds as a C archive (-buildmode=c-archive) exposing
// the fixed ABI symbol names spec.md §6/§9 require with C linkage, so
// instrumented C/C++ translation units can link against this runtime the
// same way they would link against a native ASAN runtime.
//
// Build with:
//
//	go build -buildmode=c-archive -o libgoasan.a ./cmd/libgoasan
//
// which produces libgoasan.a and a generated libgoasan.h declaring every
// //export'd symbol below.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"github.com/dl/goasan/internal/abi"
	"github.com/dl/goasan/internal/config"
)

//export goasan_init
func goasan_init(appSize C.size_t, redZone C.size_t, quarantine C.int, strictInit C.int, debug C.int) C.int {
	cfg := config.Default()
	cfg.AppSize = uintptr(appSize)
	cfg.RedZoneBorder = uint64(redZone)
	cfg.QuarantineCapacity = int(quarantine)
	cfg.Debug = debug != 0
	if strictInit != 0 {
		cfg.InitPolicy = config.Strict
	}

	if err := cfg.Validate(); err != nil {
		return -1
	}
	if err := abi.Init(cfg); err != nil {
		return -1
	}
	return 0
}

//export goasan_shutdown
func goasan_shutdown() {
	abi.Shutdown()
}

//export asan_malloc
func asan_malloc(size C.size_t) C.uintptr_t {
	p, err := abi.AsanMalloc(uint64(size))
	if err != nil {
		return 0
	}
	return C.uintptr_t(p)
}

//export asan_free
func asan_free(p C.uintptr_t) {
	abi.AsanFree(uintptr(p))
}

//export check_load1
func check_load1(addr C.uintptr_t) C.int { return boolToC(abi.CheckLoad1(uintptr(addr))) }

//export check_load2
func check_load2(addr C.uintptr_t) C.int { return boolToC(abi.CheckLoad2(uintptr(addr))) }

//export check_load4
func check_load4(addr C.uintptr_t) C.int { return boolToC(abi.CheckLoad4(uintptr(addr))) }

//export check_load8
func check_load8(addr C.uintptr_t) C.int { return boolToC(abi.CheckLoad8(uintptr(addr))) }

//export check_store1
func check_store1(addr C.uintptr_t) C.int { return boolToC(abi.CheckStore1(uintptr(addr))) }

//export check_store2
func check_store2(addr C.uintptr_t) C.int { return boolToC(abi.CheckStore2(uintptr(addr))) }

//export check_store4
func check_store4(addr C.uintptr_t) C.int { return boolToC(abi.CheckStore4(uintptr(addr))) }

//export check_store8
func check_store8(addr C.uintptr_t) C.int { return boolToC(abi.CheckStore8(uintptr(addr))) }

//export check_load_n
func check_load_n(addr C.uintptr_t, n C.size_t) C.int {
	return boolToC(abi.CheckLoadN(uintptr(addr), int(n)))
}

//export check_store_n
func check_store_n(addr C.uintptr_t, n C.size_t) C.int {
	return boolToC(abi.CheckStoreN(uintptr(addr), int(n)))
}

//export report_load1
func report_load1(addr C.uintptr_t) { abi.ReportLoad1(uintptr(addr)) }

//export report_load2
func report_load2(addr C.uintptr_t) { abi.ReportLoad2(uintptr(addr)) }

//export report_load4
func report_load4(addr C.uintptr_t) { abi.ReportLoad4(uintptr(addr)) }

//export report_load8
func report_load8(addr C.uintptr_t) { abi.ReportLoad8(uintptr(addr)) }

//export report_store1
func report_store1(addr C.uintptr_t) { abi.ReportStore1(uintptr(addr)) }

//export report_store2
func report_store2(addr C.uintptr_t) { abi.ReportStore2(uintptr(addr)) }

//export report_store4
func report_store4(addr C.uintptr_t) { abi.ReportStore4(uintptr(addr)) }

//export report_store8
func report_store8(addr C.uintptr_t) { abi.ReportStore8(uintptr(addr)) }

//export register_globals
func register_globals(addr C.uintptr_t, n C.int) { abi.RegisterGlobals(uintptr(addr), int(n)) }

//export unregister_globals
func unregister_globals(addr C.uintptr_t, n C.int) { abi.UnregisterGlobals(uintptr(addr), int(n)) }

//export stack_malloc_1
func stack_malloc_1(size C.uintptr_t) C.uintptr_t { return C.uintptr_t(abi.StackMalloc1(uintptr(size))) }

//export stack_malloc_2
func stack_malloc_2(size C.uintptr_t) C.uintptr_t { return C.uintptr_t(abi.StackMalloc2(uintptr(size))) }

//export stack_malloc_3
func stack_malloc_3(size C.uintptr_t) C.uintptr_t { return C.uintptr_t(abi.StackMalloc3(uintptr(size))) }

//export stack_malloc_4
func stack_malloc_4(size C.uintptr_t) C.uintptr_t { return C.uintptr_t(abi.StackMalloc4(uintptr(size))) }

//export handle_no_return
func handle_no_return() { abi.HandleNoReturn() }

//export option_detect_stack_use_after_return
func option_detect_stack_use_after_return() C.int {
	return C.int(abi.OptionDetectStackUseAfterReturn())
}

//export version_mismatch_check
func version_mismatch_check(expected C.int) { abi.VersionMismatchCheck(int(expected)) }

func boolToC(ok bool) C.int {
	if ok {
		return 1
	}
	return 0
}

func main() {} // required by -buildmode=c-archive, never invoked
