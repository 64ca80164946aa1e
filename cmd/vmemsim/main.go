// Package main provides the entry point for vmemsim, a trace-driven simulator
// of a multi-threaded TLB.
//
// Usage:
//
//	vmemsim run [flags] <trace>
//	vmemsim bench [--csv|--json]
//	vmemsim config [--out file]
package main

func main() {
	Execute()
}
