package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	profileName   string
	profileAge    int
	profileEnergy int
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change the dog profile",
	Long: `The profile feeds the baseline engine: its energy level (1-10)
sets the activation expected from this dog.`,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, _, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		p, err := st.LoadProfile(cmd.Context())
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(p)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update the stored profile",
	Long: `Set updates only the fields given as flags.

Example:
  canisense profile set --name Rex --age 4 --energy 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("name") && !flags.Changed("age") && !flags.Changed("energy") {
			return fmt.Errorf("nothing to set (use --name, --age or --energy)")
		}
		if flags.Changed("energy") && (profileEnergy < 1 || profileEnergy > 10) {
			return fmt.Errorf("energy must be between 1 and 10, got %d", profileEnergy)
		}
		if flags.Changed("age") && profileAge < 0 {
			return fmt.Errorf("age must not be negative, got %d", profileAge)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		st, snaps, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		p, err := st.LoadProfile(cmd.Context())
		if err != nil {
			return err
		}
		if flags.Changed("name") {
			p.Name = profileName
		}
		if flags.Changed("age") {
			p.Age = profileAge
		}
		if flags.Changed("energy") {
			p.Energy = profileEnergy
		}
		if err := snaps.SaveProfile(cmd.Context(), p); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Profile saved: %s, %d ans, énergie %d/10\n", p.Name, p.Age, p.EffectiveEnergy())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)

	profileSetCmd.Flags().StringVar(&profileName, "name", "", "dog name")
	profileSetCmd.Flags().IntVar(&profileAge, "age", 0, "age in years")
	profileSetCmd.Flags().IntVar(&profileEnergy, "energy", 0, "usual energy level, 1-10")
}
