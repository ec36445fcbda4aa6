// Command seal-preview fetches Seal contract previews with their annotation
// metadata and serves them over HTTP.
package main

import "github.com/Sternrassler/seal-preview/internal/cli"

func main() {
	cli.Execute()
}
