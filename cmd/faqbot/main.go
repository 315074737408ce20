// Command faqbot runs the FAQ assistant locally: an interactive chat, one-shot
// questions, catalog tooling and an HTTP server.
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
