package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/emrgen/folio/internal/render"
	"github.com/emrgen/folio/internal/service"
	"github.com/emrgen/folio/internal/theme"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "follow the live preview of a session",
}

func init() {
	previewCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	previewCmd.AddCommand(showPreviewCmd())
	previewCmd.AddCommand(watchPreviewCmd())
}

func showPreviewCmd() *cobra.Command {
	var id string

	command := &cobra.Command{
		Use:   "show",
		Short: "print the current preview once",
		Run: func(cmd *cobra.Command, args []string) {
			id, ok := currentSession(id)
			if !ok {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			pv, err := newClient().Preview(ctx, id)
			if err != nil {
				logrus.Error(err)
				return
			}
			printPreview(*pv)
		},
	}

	command.Flags().StringVarP(&id, "session", "s", "", "session id (defaults to the current session)")

	return command
}

func watchPreviewCmd() *cobra.Command {
	var id string

	command := &cobra.Command{
		Use:   "watch",
		Short: "print the preview every time the session changes",
		Run: func(cmd *cobra.Command, args []string) {
			id, ok := currentSession(id)
			if !ok {
				return
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
			defer stop()

			err := newClient().WatchPreview(ctx, id, func(pv service.PreviewView) {
				color.Magenta("---")
				printPreview(pv)
			})
			if err != nil && ctx.Err() == nil {
				logrus.Error(err)
			}
		},
	}

	command.Flags().StringVarP(&id, "session", "s", "", "session id (defaults to the current session)")

	return command
}

func printPreview(pv service.PreviewView) {
	if pv.View == nil {
		color.Yellow("Loading preview... No preview data available yet. Start editing your portfolio.")
		return
	}

	vm := pv.View
	printField("name", vm.Name)
	if pv.Variant != nil {
		printField("theme", pv.Variant.ThemeClass()+" "+pv.Variant.AnimationClass())
	}
	if vm.ShowAbout {
		printField("about", vm.About)
	}
	if vm.ShowSkills {
		printField("skills", strings.Join(vm.Skills, ", "))
	}
	for _, p := range vm.Projects {
		printField("project", p.Name+" ["+strings.Join(p.Technologies, ", ")+"]")
	}
	for _, e := range vm.Experience {
		printField("experience", e.Title+" @ "+e.Company)
	}
	for _, a := range vm.Achievements {
		printField("achievement", a.Title)
	}
	if vm.Contact.Phone != "" {
		printField("phone", vm.Contact.Phone)
	}
}

func previewOf(vm *render.ViewModel, variant theme.Variant) service.PreviewView {
	return service.PreviewView{State: "ready", View: vm, Variant: &variant}
}
