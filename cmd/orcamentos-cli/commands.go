package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"orcamentos/internal/budget"
	"orcamentos/internal/catalog"
	"orcamentos/internal/core"
	"orcamentos/internal/csvcodec"
	"orcamentos/internal/export"
	"orcamentos/internal/services"
)

var yesFlag = &cli.BoolFlag{
	Name:    "yes",
	Aliases: []string{"y"},
	Usage:   "confirma sem perguntar",
}

func catalogCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "catálogo de serviços",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "lista os serviços",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "filtra por nome ou unidade"},
				},
				Action: func(c *cli.Context) error {
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					svc.Catalog().SetFilter(c.String("filter"))
					return printCatalog(c.App.Writer, svc)
				},
			},
			{
				Name:      "import",
				Usage:     "importa serviços de um arquivo CSV ou XLSX",
				ArgsUsage: "FILE",
				Action: func(c *cli.Context) error {
					path := c.Args().First()
					if path == "" {
						return cli.Exit("informe o arquivo a importar", 2)
					}
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					f, err := os.Open(path)
					if err != nil {
						return fmt.Errorf("open %s: %w", path, err)
					}
					defer f.Close()

					n, err := svc.ImportFile(filepath.Base(path), f)
					if errors.Is(err, catalog.ErrEmptyImport) {
						return cli.Exit("CSV vazio ou inválido", 1)
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "%d serviço(s) importado(s)\n", n)
					return nil
				},
			},
			{
				Name:  "template",
				Usage: "imprime o modelo de CSV",
				Action: func(c *cli.Context) error {
					_, err := fmt.Fprintln(c.App.Writer, csvcodec.Template())
					return err
				},
			},
			{
				Name:  "export",
				Usage: "exporta o catálogo em CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "arquivo de saída (padrão: saída padrão)"},
				},
				Action: func(c *cli.Context) error {
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					return writeOutput(c, c.String("output"), func(w io.Writer) error {
						return csvcodec.EncodeCatalog(w, svc.Catalog().Services())
					})
				},
			},
			{
				Name:  "restore",
				Usage: "substitui o catálogo pelos exemplos padrão",
				Flags: []cli.Flag{yesFlag},
				Action: func(c *cli.Context) error {
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					ok, err := svc.Catalog().RestoreDefaults(confirmer(c))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(c.App.Writer, "Restauração cancelada")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "Catálogo restaurado com %d serviço(s)\n", len(svc.Catalog().Services()))
					return nil
				},
			},
			{
				Name:  "attach",
				Usage: "anexa os exemplos que ainda não estão no catálogo",
				Action: func(c *cli.Context) error {
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					n := svc.Catalog().AttachDefaults()
					fmt.Fprintf(c.App.Writer, "%d serviço(s) de exemplo anexado(s)\n", n)
					return nil
				},
			},
		},
	}
}

func budgetCommand(s *session) *cli.Command {
	return &cli.Command{
		Name:  "budget",
		Usage: "itens e totais do orçamento",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "lista os itens do orçamento",
				Action: func(c *cli.Context) error {
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					return printBudget(c.App.Writer, svc)
				},
			},
			{
				Name:      "add",
				Usage:     "adiciona um serviço do catálogo ao orçamento",
				ArgsUsage: "SERVICE_ID",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return cli.Exit("informe o id do serviço", 2)
					}
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					item, err := svc.AddToBudget(id)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "Adicionado %s (%s)\n", item.Name, item.ID)
					return nil
				},
			},
			{
				Name:      "set",
				Usage:     "altera a quantidade de um item; abaixo de 1 remove",
				ArgsUsage: "ID QTY",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return cli.Exit("uso: budget set ID QTY", 2)
					}
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					qty := core.Normalize(c.Args().Get(1))
					item, removed, err := svc.Budget().Update(c.Args().First(), budget.Patch{Qty: &qty})
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintln(c.App.Writer, "Item removido")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "%s: %d x %s = %s\n",
						item.Name, item.Qty, core.FormatBRL(item.Price), core.FormatBRL(item.Subtotal()))
					return nil
				},
			},
			{
				Name:      "remove",
				Usage:     "remove um item do orçamento",
				ArgsUsage: "ID",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return cli.Exit("informe o id do item", 2)
					}
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					if err := svc.Budget().Remove(id); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "Item removido")
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "remove todos os itens",
				Flags: []cli.Flag{yesFlag},
				Action: func(c *cli.Context) error {
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					if !svc.Budget().Clear(confirmer(c)) {
						fmt.Fprintln(c.App.Writer, "Nada foi removido")
						return nil
					}
					fmt.Fprintln(c.App.Writer, "Orçamento limpo")
					return nil
				},
			},
			{
				Name:  "totals",
				Usage: "mostra o resumo de valores",
				Action: func(c *cli.Context) error {
					svc, err := s.service(c)
					if err != nil {
						return err
					}
					return printTotals(c.App.Writer, svc.Totals())
				},
			},
			{
				Name:  "export",
				Usage: "exporta o orçamento em XLSX ou PDF",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "xlsx", Usage: "xlsx ou pdf"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "arquivo de saída"},
				},
				Action: func(c *cli.Context) error {
					format := strings.ToLower(c.String("format"))
					var write func(io.Writer, core.Quote) error
					switch format {
					case "xlsx":
						write = export.WriteXLSX
					case "pdf":
						write = export.WritePDF
					default:
						return cli.Exit(fmt.Sprintf("formato desconhecido %q", format), 2)
					}

					svc, err := s.service(c)
					if err != nil {
						return err
					}
					q := svc.Snapshot()
					out := c.String("output")
					if out == "" {
						out = export.FileName(q, format)
					}
					if err := writeOutput(c, out, func(w io.Writer) error { return write(w, q) }); err != nil {
						return err
					}
					fmt.Fprintf(c.App.ErrWriter, "Orçamento exportado para %s\n", out)
					return nil
				},
			},
		},
	}
}

// confirmer answers prompts from --yes or, without it, from a line read
// on the app's input.
func confirmer(c *cli.Context) func(string) bool {
	if c.Bool("yes") {
		return services.Answer(true)
	}
	return func(prompt string) bool {
		fmt.Fprintf(c.App.ErrWriter, "%s [s/N] ", prompt)
		line, _ := bufio.NewReader(c.App.Reader).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "sim", "y", "yes":
			return true
		}
		return false
	}
}

// writeOutput sends render to path, or to the app's writer when path is
// empty or "-".
func writeOutput(c *cli.Context, path string, render func(io.Writer) error) error {
	if path == "" || path == "-" {
		return render(c.App.Writer)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printCatalog(w io.Writer, svc *services.QuoteService) error {
	view := svc.Catalog().View()
	selected, _ := svc.Catalog().Selected()

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " \tID\tSERVIÇO\tUNIDADE\tVALOR")
	for _, row := range view {
		mark := " "
		if row.ID == selected.ID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, row.ID, row.Name, row.Unit, core.FormatBRL(row.Price))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d de %d serviço(s)\n", len(view), len(svc.Catalog().Services()))
	return err
}

func printBudget(w io.Writer, svc *services.QuoteService) error {
	items := svc.Budget().Items()
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "Nenhum item no orçamento")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSERVIÇO\tUNIDADE\tQTDE\tVALOR\tSUBTOTAL")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			it.ID, it.Name, it.Unit, it.Qty, core.FormatBRL(it.Price), core.FormatBRL(it.Subtotal()))
	}
	return tw.Flush()
}

func printTotals(w io.Writer, t core.Totals) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Total dos itens\t%s\t\n", core.FormatBRL(t.Items))
	fmt.Fprintf(tw, "Deslocamento\t%s\t\n", core.FormatBRL(t.TravelFee))
	fmt.Fprintf(tw, "Taxas\t%s\t\n", core.FormatBRL(t.Surcharge))
	fmt.Fprintf(tw, "Desconto\t-%s\t\n", core.FormatBRL(t.Discount))
	fmt.Fprintf(tw, "Total final\t%s\t\n", core.FormatBRL(t.Final))
	return tw.Flush()
}
