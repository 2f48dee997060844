package cmd

import (
	"github.com/spf13/cobra"
	"github.com/stratastor/smartmond/cmd/health"
	"github.com/stratastor/smartmond/cmd/inspect"
	"github.com/stratastor/smartmond/cmd/serve"
	"github.com/stratastor/smartmond/cmd/version"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rodent",
		Short: "Rodent: StrataSTOR Node Agent",
	}

	rootCmd.AddCommand(serve.NewServeCmd())
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(health.NewHealthCmd())
	rootCmd.AddCommand(inspect.NewInspectCmd())

	return rootCmd
}
