// Package profile wraps [github.com/pkg/profile] to profile a creator run.
//
// The following profiling modes are supported:
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// Use [Modes] to retrieve the list of supported modes programmatically.
//
//	ctrl := profile.Profiler{Mode: "cpu", Path: "/tmp/profiles"}.Start()
//	defer ctrl.Stop()
//
// The command line enables profiling with --pprof-mode and writes to
// --pprof-dir, by default the pprof subdirectory of the cache directory:
//
//	creator --pprof-mode=cpu build
//
// Analyze the result with go tool pprof:
//
//	go tool pprof -http=: ~/.cache/creator/pprof/cpu.pprof
package profile
