// generate-interfaces emits the C registration code for the object
// interfaces declared in an interface spec file.
package main

import "github.com/chazu/vmgen/gencli"

func main() {
	gencli.Main(gencli.Interfaces)
}
