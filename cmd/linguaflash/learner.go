package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vytor/linguaflash/internal/models"
	"github.com/vytor/linguaflash/internal/services"
)

var learnerCmd = &cobra.Command{
	Use:   "learner",
	Short: "Create and inspect learners",
}

var learnerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a learner seeded with the starter curriculum",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		language, _ := cmd.Flags().GetString("language")
		level, _ := cmd.Flags().GetString("level")

		st, err := a.learners.CreateLearner(cmd.Context(), services.CreateLearnerInput{
			Name:        name,
			Email:       email,
			Language:    language,
			Proficiency: models.Proficiency(level),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), st.Profile.ID)
		return nil
	},
}

var learnerShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a learner's full state as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.learners.GetState(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), st)
	},
}

var learnerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learners",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		profiles, err := a.learners.ListLearners(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tLANGUAGE\tXP\tSTREAK")
		for _, p := range profiles {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", p.ID, p.Name, p.Language, p.XP, p.Streak)
		}
		return tw.Flush()
	},
}

var dueCmd = &cobra.Command{
	Use:   "due <learner-id>",
	Short: "Show the cards due for review, most overdue first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		cards, err := a.learners.DueCards(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CARD\tWORD\tTRANSLATION\tINTERVAL\tEASE\tREVIEWS")
		for _, c := range cards {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.1fd\t%.2f\t%d\n", c.ID, c.Word, c.Translation, c.IntervalDays, c.EaseFactor, c.ReviewCount)
		}
		return tw.Flush()
	},
}

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List the language catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
		for _, l := range a.learners.Languages(cmd.Context()) {
			status := "available"
			if l.ComingSoon {
				status = "coming soon"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Name, status)
		}
		return tw.Flush()
	},
}

var reevaluateCmd = &cobra.Command{
	Use:   "reevaluate",
	Short: "Re-run achievement evaluation for every learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		earned, err := a.learners.ReevaluateAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d achievements earned\n", earned)
		return nil
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	learnerCreateCmd.Flags().String("name", "", "Learner name")
	learnerCreateCmd.Flags().String("email", "", "Learner email")
	learnerCreateCmd.Flags().String("language", "es", "Target language id")
	learnerCreateCmd.Flags().String("level", "beginner", "Proficiency: beginner, intermediate or advanced")
	_ = learnerCreateCmd.MarkFlagRequired("name")

	dueCmd.Flags().Int("limit", 0, "Maximum number of cards (0 for all)")

	learnerCmd.AddCommand(learnerCreateCmd)
	learnerCmd.AddCommand(learnerShowCmd)
	learnerCmd.AddCommand(learnerListCmd)
}
