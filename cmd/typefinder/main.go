// Command typefinder discovers the types of a Go module that implement an
// interface or embed a base struct, and generates registration code for them.
//
// Discovery flow:
//
//  1. Load config (typefinder.cue, .env, TYPEFINDER_* env)
//  2. Load the host packages (./... by default) and their imports
//  3. Filter packages by the skip/restrict name patterns
//  4. Enumerate declared types and match them against the target
//  5. Print the matches, or render a registry file with one factory each
//
// Usage:
//
//	//go:generate go run github.com/iVampireSP/typefinder/cmd/typefinder generate example.com/app/svc.Service -p main
package main

func main() {
	Execute()
}
