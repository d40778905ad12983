// Package main provides the entry point for the ParserLinks CLI.
//
// ParserLinks is a high-throughput URL prober for image hostings.
// It generates candidate page URLs, classifies them with a streaming
// prefix scan, and downloads the images it finds.
//
// Usage:
//
//	parserlinks run imgbb
//	parserlinks probe https://ibb.co/abc12345
//
// See --help for all available options.
package main

// main is the entry point for ParserLinks.
func main() {
	Execute()
}
