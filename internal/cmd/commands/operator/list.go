package operator

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/procuraduria/docket/internal/cmd/base"
	"github.com/procuraduria/docket/pkg/models"
)

const listTimeLayout = "2006-01-02 15:04"

type ListDocumentsCommand struct {
	*base.Command

	env       envFlags
	flagLimit int
}

func (c *ListDocumentsCommand) Synopsis() string {
	return "List the most recently registered documents"
}

func (c *ListDocumentsCommand) Help() string {
	return `Usage: docket operator list-documents [options]` + c.Flags().Help()
}

func (c *ListDocumentsCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("list-documents", flag.ContinueOnError))
	c.env.register(f)
	f.IntVar(&c.flagLimit, "limit", 20, "Maximum number of documents to list.")
	return f
}

func (c *ListDocumentsCommand) Run(args []string) int {
	env := setup(c.Command, c.Flags(), &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	docs, err := env.Manager.ListDocuments(ctx, c.env.caller(), c.flagLimit)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error listing documents: %v", err))
		return 1
	}
	if len(docs) == 0 {
		c.UI.Info("No documents registered")
		return 0
	}
	for _, d := range docs {
		c.UI.Output(formatDocument(d))
	}
	return 0
}

type ListCasesCommand struct {
	*base.Command

	env       envFlags
	flagLimit int
}

func (c *ListCasesCommand) Synopsis() string {
	return "List the most recently opened cases"
}

func (c *ListCasesCommand) Help() string {
	return `Usage: docket operator list-cases [options]` + c.Flags().Help()
}

func (c *ListCasesCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("list-cases", flag.ContinueOnError))
	c.env.register(f)
	f.IntVar(&c.flagLimit, "limit", 20, "Maximum number of cases to list.")
	return f
}

func (c *ListCasesCommand) Run(args []string) int {
	env := setup(c.Command, c.Flags(), &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	cases, err := env.Manager.ListCases(ctx, c.env.caller(), c.flagLimit)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error listing cases: %v", err))
		return 1
	}
	if len(cases) == 0 {
		c.UI.Info("No cases opened")
		return 0
	}
	for _, cs := range cases {
		c.UI.Output(formatCase(cs))
	}
	return 0
}

type ListPetitionsCommand struct {
	*base.Command

	env        envFlags
	flagStatus string
	flagSince  string
	flagLimit  int
}

func (c *ListPetitionsCommand) Synopsis() string {
	return "List filed petitions"
}

func (c *ListPetitionsCommand) Help() string {
	return `Usage: docket operator list-petitions [options]

  Lists petitions newest first, optionally filtered by status and by filing
  date. -since accepts most date formats, for example "2025-05-01",
  "May 1, 2025" or "01/05/2025".` + c.Flags().Help()
}

func (c *ListPetitionsCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("list-petitions", flag.ContinueOnError))
	c.env.register(f)
	f.StringVar(&c.flagStatus, "status", "", "Only list petitions in this status: pending or answered.")
	f.StringVar(&c.flagSince, "since", "", "Only list petitions filed at or after this date.")
	f.IntVar(&c.flagLimit, "limit", 20, "Maximum number of petitions to list.")
	return f
}

func (c *ListPetitionsCommand) Run(args []string) int {
	env := setup(c.Command, c.Flags(), &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	filter := models.PetitionFilter{Limit: c.flagLimit}
	if c.flagStatus != "" {
		status, err := parsePetitionStatus(c.flagStatus)
		if err != nil {
			c.UI.Error(err.Error())
			return 1
		}
		filter.Status = status
	}
	if c.flagSince != "" {
		since, err := dateparse.ParseIn(c.flagSince, time.UTC)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error parsing -since: %v", err))
			return 1
		}
		filter.Since = since
	}

	ctx, cancel := signalContext()
	defer cancel()

	petitions, err := env.Manager.ListPetitions(ctx, c.env.caller(), filter)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error listing petitions: %v", err))
		return 1
	}
	if len(petitions) == 0 {
		c.UI.Info("No petitions found")
		return 0
	}
	for _, p := range petitions {
		c.UI.Output(fmt.Sprintf("%s  %-10s  %-10s  %s  %s (%s)",
			p.Radicado, p.Type, p.Status, p.FiledAt.Format(listTimeLayout), p.Subject, p.RequesterName))
	}
	return 0
}

func parsePetitionStatus(s string) (models.PetitionStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING", "PENDIENTE":
		return models.PetitionStatusPending, nil
	case "ANSWERED", "RESPONDIDA", "RESPONDIDO":
		return models.PetitionStatusAnswered, nil
	}
	return "", fmt.Errorf("unknown petition status %q, use pending or answered", s)
}

func formatDocument(d models.Document) string {
	line := fmt.Sprintf("%-20s  %s", d.Label(), d.Title)
	if ius := d.IUSValue(); ius != "" {
		line += fmt.Sprintf("  [%s]", ius)
	}
	if d.Link != "" {
		line += "  " + d.Link
	}
	return line
}

func formatCase(c models.Case) string {
	line := fmt.Sprintf("%s  %-12s  %s  %s", c.Code, c.Status, c.OpenedAt.Format(listTimeLayout), c.Implicated)
	if c.Restricted() {
		line += "  (reservado)"
	}
	return line
}
