package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/canisense/internal/model"
	"github.com/ppiankov/canisense/internal/store"
)

var (
	feedbackWrong   bool
	feedbackComment string
)

// feedbackCmd represents the feedback command
var feedbackCmd = &cobra.Command{
	Use:   "feedback <analysis-id>",
	Short: "Record whether an analysis matched what you observed",
	Long: `Feedback marks a past analysis as correct (default) or wrong.

Example:
  canisense feedback 3f2a... --comment "il jouait"
  canisense feedback 3f2a... --wrong`,
	Args: cobra.ExactArgs(1),
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

		f := model.Feedback{
			AnalysisID: args[0],
			Timestamp:  time.Now(),
			Correct:    !feedbackWrong,
			Comment:    feedbackComment,
		}
		if err := st.SaveFeedback(cmd.Context(), f); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no analysis with id %s (see 'canisense history')", args[0])
			}
			return err
		}

		verdict := "correct"
		if feedbackWrong {
			verdict = "wrong"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Feedback saved: %s marked %s\n", args[0], verdict)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	feedbackCmd.Flags().BoolVar(&feedbackWrong, "wrong", false, "mark the analysis as wrong")
	feedbackCmd.Flags().StringVarP(&feedbackComment, "comment", "m", "", "optional comment")
}
