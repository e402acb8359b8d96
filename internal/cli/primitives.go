package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// PrimitiveInfo describes one catalog primitive.
type PrimitiveInfo struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
	Doc  string `json:"doc,omitempty"`
}

// NewPrimitivesCommand creates the primitives command.
func NewPrimitivesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "primitives",
		Short: "List the primitives pipelines can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prims := rootOpts.Registry.All()
			infos := make([]PrimitiveInfo, len(prims))

			var b strings.Builder
			tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
			for i, p := range prims {
				infos[i] = PrimitiveInfo{Name: p.Name, From: string(p.From), To: string(p.To), Doc: p.Doc}
				fmt.Fprintf(tw, "%s\t%s -> %s\t%s\n", p.Name, p.From, p.To, p.Doc)
			}
			_ = tw.Flush()
			return rootOpts.formatter(cmd).Success(infos, b.String())
		},
	}
}
