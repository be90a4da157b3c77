package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "portfolio builder",
	Example: `folio serve
folio context set --server http://localhost:4001 --owner <user-id>
folio session start --prefill
folio session set -f name -v "Asha Rao"
folio session skill Go
folio session add -a projects
folio session edit -a projects -i 0 -f technologies -v "Go, Redis"
folio preview watch
folio publish
folio render -f portfolio.json --html out.html --pdf out.pdf
folio portfolio list`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(contextCommand)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
