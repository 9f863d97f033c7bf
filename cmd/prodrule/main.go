// Command prodrule classifies, stratifies and evaluates production rule
// sets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/prodrule/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "prodrule:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
