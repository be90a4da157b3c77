package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/emrgen/folio/internal/export"
	"github.com/emrgen/folio/internal/model"
	"github.com/emrgen/folio/internal/render"
	"github.com/emrgen/folio/internal/theme"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "published portfolios",
}

func init() {
	portfolioCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	portfolioCmd.AddCommand(getPortfolioCmd())
	portfolioCmd.AddCommand(downloadPortfolioCmd())
	portfolioCmd.AddCommand(listPortfoliosCmd())
	portfolioCmd.AddCommand(deletePortfolioCmd())
	portfolioCmd.AddCommand(analyticsCmd())
}

func getPortfolioCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "get <unique-url>",
		Short: "show a published portfolio",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := timeoutContext()
			defer cancel()

			pv, err := newClient().Portfolio(ctx, args[0])
			if err != nil {
				logrus.Error(err)
				return
			}

			printField("id", pv.ID)
			printField("published", pv.CreatedAt.Format(time.RFC3339))
			printField("name", pv.View.Name)
			printField("theme", pv.Variant.ThemeClass())
		},
	}

	return command
}

func downloadPortfolioCmd() *cobra.Command {
	var out string
	var asPDF bool

	var required = []string{"out"}

	command := &cobra.Command{
		Use:   "download <unique-url>",
		Short: "save a published portfolio as html or pdf",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx, cancel := timeoutContext()
			defer cancel()

			client := newClient()
			var data []byte
			var err error
			if asPDF {
				data, err = client.PortfolioPDF(ctx, args[0])
			} else {
				data, err = client.PortfolioPage(ctx, args[0])
			}
			if err != nil {
				logrus.Error(err)
				return
			}

			if err := os.WriteFile(out, data, 0o644); err != nil {
				logrus.Error(err)
				return
			}
			color.Green("saved %s", out)
		},
	}

	command.Flags().StringVarP(&out, "out", "o", "", "output file (required)")
	command.Flags().BoolVar(&asPDF, "pdf", false, "download the pdf export")

	return command
}

func listPortfoliosCmd() *cobra.Command {
	var offset int
	var limit int

	command := &cobra.Command{
		Use:   "list",
		Short: "list published portfolios (admin)",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := timeoutContext()
			defer cancel()

			list, err := newClient().AsAdmin().ListPortfolios(ctx, offset, limit)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Owner", "Name", "URL", "Theme", "Published"})
			for _, p := range list.Portfolios {
				table.Append([]string{p.ID, p.OwnerID, p.Name, p.UniqueURL, p.Theme, p.CreatedAt.Format(time.DateTime)})
			}
			table.SetFooter([]string{"", "", "", "", "total", strconv.FormatInt(list.Total, 10)})
			table.Render()
		},
	}

	command.Flags().IntVar(&offset, "offset", 0, "skip this many portfolios")
	command.Flags().IntVar(&limit, "limit", 20, "page size")

	return command
}

func deletePortfolioCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "delete <id>",
		Short: "delete a published portfolio (admin)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := timeoutContext()
			defer cancel()

			if err := newClient().AsAdmin().DeletePortfolio(ctx, args[0]); err != nil {
				logrus.Error(err)
				return
			}
			color.Green("portfolio %s deleted", args[0])
		},
	}

	return command
}

func analyticsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "analytics",
		Short: "portfolio totals and theme distribution (admin)",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := timeoutContext()
			defer cancel()

			a, err := newClient().AsAdmin().Analytics(ctx)
			if err != nil {
				logrus.Error(err)
				return
			}

			printField("portfolios", strconv.FormatInt(a.TotalPortfolios, 10))
			printField("active sessions", strconv.Itoa(a.ActiveSessions))

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Theme", "Count"})
			for _, t := range a.Themes {
				table.Append([]string{t.Theme, strconv.FormatInt(t.Count, 10)})
			}
			table.Render()
		},
	}

	return command
}

func renderCmd() *cobra.Command {
	var file string
	var htmlOut string
	var pdfOut string
	var assetBase string
	var chromePath string

	var required = []string{"file"}

	command := &cobra.Command{
		Use:   "render",
		Short: "render a portfolio document file without a server",
		Long: `Validate a portfolio document (json), resolve it and print the sections it shows.
With --html or --pdf the page is written to that file.`,
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			vm, err := render.ResolveJSON(data, assetBase)
			if err != nil {
				color.Red("%v", err)
				return
			}
			doc, err := model.ParseDocument(data)
			if err != nil {
				logrus.Error(err)
				return
			}
			variant := theme.Select(doc.Theme, doc.Animation)

			if htmlOut == "" && pdfOut == "" {
				printPreview(previewOf(vm, variant))
				return
			}

			var page bytes.Buffer
			if err := render.Page(&page, vm, variant, time.Now().Year()); err != nil {
				logrus.Error(err)
				return
			}

			if htmlOut != "" {
				if err := os.WriteFile(htmlOut, page.Bytes(), 0o644); err != nil {
					logrus.Error(err)
					return
				}
				color.Green("saved %s", htmlOut)
			}

			if pdfOut != "" {
				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				pdf, err := export.NewPDFExporter(chromePath).HTMLToPDF(ctx, page.Bytes())
				if err != nil {
					logrus.Error(fmt.Errorf("pdf export: %w", err))
					return
				}
				if err := os.WriteFile(pdfOut, pdf, 0o644); err != nil {
					logrus.Error(err)
					return
				}
				color.Green("saved %s", pdfOut)
			}
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "portfolio document json (required)")
	command.Flags().StringVar(&htmlOut, "html", "", "write the page to this file")
	command.Flags().StringVar(&pdfOut, "pdf", "", "write a pdf to this file (needs chrome)")
	command.Flags().StringVar(&assetBase, "asset-base", "", "base url for relative asset references")
	command.Flags().StringVar(&chromePath, "chrome", os.Getenv("CHROME_PATH"), "chrome executable")
	command.Flags().SortFlags = false

	return command
}
