package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version metadata, overridable at build time via
// go build -ldflags "-X main.version=0.2.0 -X main.commit=abcdef1".
var (
	version = "0.1.0"
	commit  = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ipgu",
		Short:        "Bilingual subtitle pipeline driven by multimodal and text LLMs",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.Version = fmt.Sprintf("%s (commit %s)", version, commit)
	cmd.SetVersionTemplate("ipgu {{.Version}}\n")

	cmd.AddCommand(
		newRunCmd(),
		newEnvCmd(),
	)

	return cmd
}
