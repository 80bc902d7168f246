// generate-opcodes emits the opcode constants and lookup tables for the
// VM instruction set declared in an opcode spec file.
package main

import "github.com/chazu/vmgen/gencli"

func main() {
	gencli.Main(gencli.Opcodes)
}
