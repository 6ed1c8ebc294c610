package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cfg := &Config{}
	err := newCmd(cfg).ExecuteContext(ctx)
	stop()
	cobra.CheckErr(err)
}
