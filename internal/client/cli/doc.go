// Package cli is the command-line front end of the uploader. It wires the
// HTTP client and upload service from config, renders progress and prints
// a summary.
package cli
