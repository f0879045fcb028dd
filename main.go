// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/synthinput/cmd"
)

// main lets `go run .` behave like the synthctl binary.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := cmd.Execute(ctx); err != nil && ctx.Err() == nil {
		stop()
		os.Exit(1)
	}
}
