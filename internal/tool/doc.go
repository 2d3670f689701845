// Package tool provides discovery and version probing for the wrapped tool
// binary.
//
// Discovery searches in the following order:
//  1. Explicit path in Config.Path (if provided)
//  2. System PATH
//  3. Common installation directories (/usr/local/bin, /usr/bin, ~/.local/bin)
//
// Version probes run the tool with --version under a short timeout and parse
// a semantic version prefix from the output.
package tool
