package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/ir"
)

// VersionInfo is the version command's JSON payload.
type VersionInfo struct {
	Engine string `json:"engine"`
	IR     string `json:"ir"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine and IR versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{Engine: ir.EngineVersion, IR: ir.IRVersion}
			return rootOpts.formatter(cmd).Success(info,
				fmt.Sprintf("morph %s (ir %s)\n", info.Engine, info.IR))
		},
	}
}
