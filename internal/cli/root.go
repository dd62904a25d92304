package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/canisense/internal/log"
	"github.com/ppiankov/canisense/internal/model"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "canisense",
	Short: "Canisense - behavioral state estimation for dogs (non-clinical)",
	Long: `Canisense turns camera and microphone signals into a coarse behavioral
state for a dog: Calme, Excité, Stressé or Mixte.

A bank of analysis engines measures movement, posture, tail, ears, gaze,
vocalizations, rhythm and context. Their metrics are normalized, fused into
a latent state (activation, tension, vigilance, fatigue) and interpreted
into a label with a confidence and a short explanation.

Canisense is an observation aid, not a diagnosis.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := viper.GetString("log.level")
		if verbose {
			level = "debug"
		}
		log.Init(level)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Canisense.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "canisense %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.canisense/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(model.ConfigDir())
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CANISENSE_STORE_PATH overrides store.path and so on
	viper.SetEnvPrefix("CANISENSE")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// defaultConfigPath is where config init writes
func defaultConfigPath() string {
	return filepath.Join(model.ConfigDir(), "config.yaml")
}
