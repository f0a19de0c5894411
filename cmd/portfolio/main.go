package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	askcmder "github.com/malvinraqin/portfolio/cmd/portfolio/ask"
	servecmder "github.com/malvinraqin/portfolio/cmd/portfolio/serve"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "portfolio",
		Short:        "Portfolio site chat assistant",
		SilenceUsage: true,
	}

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(askcmder.NewAskCmd())

	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
