package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/emrgen/folio/internal/model"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "edit a portfolio",
}

var sessionID string

func init() {
	sessionCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	sessionCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "session id (defaults to the current session)")

	sessionCmd.AddCommand(startSessionCmd())
	sessionCmd.AddCommand(showSessionCmd())
	sessionCmd.AddCommand(setFieldCmd())
	sessionCmd.AddCommand(toggleSkillCmd())
	sessionCmd.AddCommand(addElementCmd())
	sessionCmd.AddCommand(editElementCmd())
	sessionCmd.AddCommand(removeElementCmd())
	sessionCmd.AddCommand(achievementTitleCmd())
	sessionCmd.AddCommand(endSessionCmd())
}

func startSessionCmd() *cobra.Command {
	var prefill bool

	command := &cobra.Command{
		Use:   "start",
		Short: "start an edit session and make it current",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := timeoutContext()
			defer cancel()

			info, err := newClient().StartSession(ctx, prefill)
			if err != nil {
				logrus.Error(err)
				return
			}

			cliCtx := readContext()
			cliCtx.Session = info.ID
			if err := writeContext(cliCtx); err != nil {
				logrus.Warnf("failed to save session: %v", err)
			}

			printField("session", info.ID)
		},
	}

	command.Flags().BoolVarP(&prefill, "prefill", "p", false, "start from the latest published portfolio")

	return command
}

func showSessionCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "show",
		Short: "show the session document",
		Run: func(cmd *cobra.Command, args []string) {
			id, ok := currentSession(sessionID)
			if !ok {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			doc, err := newClient().Document(ctx, id)
			if err != nil {
				logrus.Error(err)
				return
			}
			printDocument(doc)
		},
	}

	return command
}

func setFieldCmd() *cobra.Command {
	var field string
	var value string

	var required = []string{"field", "value"}

	command := &cobra.Command{
		Use:     "set",
		Short:   "set a scalar field",
		Example: `folio session set -f socialLinks.email -v asha@example.com`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}
			id, ok := currentSession(sessionID)
			if !ok {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			if _, err := newClient().UpdateField(ctx, id, field, value); err != nil {
				logrus.Error(err)
				return
			}
			color.Green("%s updated", field)
		},
	}

	command.Flags().StringVarP(&field, "field", "f", "", "field path, e.g. name or stats.totalSkills (required)")
	command.Flags().StringVarP(&value, "value", "v", "", "field value (required)")
	command.Flags().SortFlags = false

	return command
}

func toggleSkillCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "skill <name>",
		Short: "add a skill, or remove it when present",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			id, ok := currentSession(sessionID)
			if !ok {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			doc, err := newClient().ToggleSkill(ctx, id, args[0])
			if err != nil {
				logrus.Error(err)
				return
			}
			printField("skills", strings.Join(doc.Skills, ", "))
		},
	}

	return command
}

func addElementCmd() *cobra.Command {
	var array string
	var title string

	var required = []string{"array"}

	command := &cobra.Command{
		Use:   "add",
		Short: "append a row to projects, experience or achievements",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}
			id, ok := currentSession(sessionID)
			if !ok {
				return
			}

			var template any
			if title != "" {
				switch array {
				case model.ArrayProjects:
					template = model.Project{Name: title}
				case model.ArrayExperience:
					template = model.Experience{Title: title}
				case model.ArrayAchievements:
					template = model.TitledAsset(title, "")
				}
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			doc, err := newClient().AppendArrayElement(ctx, id, array, template)
			if err != nil {
				logrus.Error(err)
				return
			}
			color.Green("%s: %d rows", array, arrayLen(doc, array))
		},
	}

	command.Flags().StringVarP(&array, "array", "a", "", "projects, experience or achievements (required)")
	command.Flags().StringVarP(&title, "title", "t", "", "name or title of the new row")
	command.Flags().SortFlags = false

	return command
}

func editElementCmd() *cobra.Command {
	var array string
	var index int
	var field string
	var value string

	var required = []string{"array", "index", "field", "value"}

	command := &cobra.Command{
		Use:     "edit",
		Short:   "set one field of one row",
		Example: `folio session edit -a projects -i 0 -f technologies -v "Go, Redis"`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}
			id, ok := currentSession(sessionID)
			if !ok {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			if _, err := newClient().UpdateArrayElement(ctx, id, array, index, field, value); err != nil {
				logrus.Error(err)
				return
			}
			color.Green("%s[%d].%s updated", array, index, field)
		},
	}

	command.Flags().StringVarP(&array, "array", "a", "", "projects, experience or achievements (required)")
	command.Flags().IntVarP(&index, "index", "i", 0, "row index (required)")
	command.Flags().StringVarP(&field, "field", "f", "", "row field (required)")
	command.Flags().StringVarP(&value, "value", "v", "", "field value (required)")
	command.Flags().SortFlags = false

	return command
}

func removeElementCmd() *cobra.Command {
	var array string
	var index int

	var required = []string{"array", "index"}

	command := &cobra.Command{
		Use:   "remove",
		Short: "remove one row",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}
			id, ok := currentSession(sessionID)
			if !ok {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			doc, err := newClient().RemoveArrayElement(ctx, id, array, index)
			if err != nil {
				logrus.Error(err)
				return
			}
			color.Green("%s: %d rows", array, arrayLen(doc, array))
		},
	}

	command.Flags().StringVarP(&array, "array", "a", "", "projects, experience or achievements (required)")
	command.Flags().IntVarP(&index, "index", "i", 0, "row index (required)")
	command.Flags().SortFlags = false

	return command
}

func achievementTitleCmd() *cobra.Command {
	var index int
	var title string

	var required = []string{"index", "title"}

	command := &cobra.Command{
		Use:   "title",
		Short: "set an achievement title",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}
			id, ok := currentSession(sessionID)
			if !ok {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			if _, err := newClient().SetAchievementTitle(ctx, id, index, title); err != nil {
				logrus.Error(err)
				return
			}
			color.Green("achievements[%d] updated", index)
		},
	}

	command.Flags().IntVarP(&index, "index", "i", 0, "achievement index (required)")
	command.Flags().StringVarP(&title, "title", "t", "", "title (required)")
	command.Flags().SortFlags = false

	return command
}

func endSessionCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "end",
		Short: "end the session and drop its draft",
		Run: func(cmd *cobra.Command, args []string) {
			id, ok := currentSession(sessionID)
			if !ok {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			if err := newClient().EndSession(ctx, id); err != nil {
				logrus.Error(err)
				return
			}

			cliCtx := readContext()
			if cliCtx.Session == id {
				cliCtx.Session = ""
				_ = writeContext(cliCtx)
			}
			color.Green("session %s ended", id)
		},
	}

	return command
}

func publishCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "publish",
		Short: "publish the current session",
		Run: func(cmd *cobra.Command, args []string) {
			id, ok := currentSession(sessionID)
			if !ok {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			res, err := newClient().Publish(ctx, id)
			if err != nil {
				logrus.Error(err)
				return
			}

			printField("id", res.ID)
			printField("url", res.UniqueURL)
			printField("link", res.Link)
		},
	}

	command.Flags().StringVarP(&sessionID, "session", "s", "", "session id (defaults to the current session)")

	return command
}

func arrayLen(doc *model.PortfolioDocument, array string) int {
	switch array {
	case model.ArrayProjects:
		return len(doc.Projects)
	case model.ArrayExperience:
		return len(doc.Experience)
	case model.ArrayAchievements:
		return len(doc.Achievements)
	}
	return 0
}

func printDocument(doc *model.PortfolioDocument) {
	printField("name", doc.Name)
	printField("about", doc.About)
	printField("theme", doc.Theme+" / "+doc.Animation)
	printField("skills", strings.Join(doc.Skills, ", "))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Array", "Index", "Title", "Detail"})
	for i, p := range doc.Projects {
		table.Append([]string{model.ArrayProjects, fmt.Sprint(i), p.Name, p.Technologies})
	}
	for i, e := range doc.Experience {
		table.Append([]string{model.ArrayExperience, fmt.Sprint(i), e.Title, e.Company})
	}
	for i, a := range doc.Achievements {
		table.Append([]string{model.ArrayAchievements, fmt.Sprint(i), a.Title(), a.Image()})
	}
	table.Render()
}

// checkMissingFlags checks if the required flags are set and returns ok if they are set
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")

		_ = cmd.Usage()

		return true
	}

	return false
}
