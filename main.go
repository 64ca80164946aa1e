// Package main provides the entry point for vmemsim.
// vmemsim is a trace-driven simulator of a multi-threaded TLB built on Akita.
//
// For the full CLI, use: go run ./cmd/vmemsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("vmemsim - Multi-threaded TLB Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: vmemsim <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run <trace>  Replay a memory-reference trace")
	fmt.Println("  bench        Run the synthetic translation benchmarks")
	fmt.Println("  config       Print or save the timing configuration")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/vmemsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/vmemsim' instead.")
	}
}
