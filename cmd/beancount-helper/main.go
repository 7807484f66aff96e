// Package main is the entry point for beancount-helper CLI.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/shunichi-ikebuchi/beancount-helper/cmd/beancount-helper/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
