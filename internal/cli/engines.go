package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/canisense/internal/engine"
	"github.com/ppiankov/canisense/internal/pipeline"
)

var enginesJSON bool

// enginesCmd represents the engines command
var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List analysis engines and whether they are active",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		p := pipeline.New(cfg.Analysis, engineOptions(cfg)()...)
		descs := make([]engine.Descriptor, 0, len(p.Engines()))
		for _, e := range p.Engines() {
			descs = append(descs, engine.Describe(e))
		}

		out := cmd.OutOrStdout()
		if enginesJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(descs)
		}

		for _, d := range descs {
			mark := " "
			if d.Active {
				mark = "✓"
			}
			fmt.Fprintf(out, "%s %-18s %-24s [%s]\n", mark, d.ID, d.Name, strings.Join(d.Accepts, ","))
			fmt.Fprintf(out, "    %s\n", d.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enginesCmd)
	enginesCmd.Flags().BoolVar(&enginesJSON, "json", false, "print descriptors as JSON")
}
