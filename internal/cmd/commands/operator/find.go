package operator

import (
	"flag"
	"fmt"

	"github.com/procuraduria/docket/internal/cmd/base"
)

type FindDocumentCommand struct {
	*base.Command

	env envFlags
}

func (c *FindDocumentCommand) Synopsis() string {
	return "Find documents by kind and number"
}

func (c *FindDocumentCommand) Help() string {
	return `Usage: docket operator find-document [options] <kind> <number>

  Matches documents whose kind contains <kind> and whose number equals
  <number>.` + c.Flags().Help()
}

func (c *FindDocumentCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("find-document", flag.ContinueOnError))
	c.env.register(f)
	return f
}

func (c *FindDocumentCommand) Run(args []string) int {
	f := c.Flags()
	env := setup(c.Command, f, &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	if f.NArg() != 2 {
		c.UI.Error("expected <kind> and <number>")
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	docs, err := env.Manager.FindDocuments(ctx, c.env.caller(), f.Arg(0), f.Arg(1))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error finding documents: %v", err))
		return 1
	}
	if len(docs) == 0 {
		c.UI.Info("No matching documents")
		return 0
	}
	for _, d := range docs {
		c.UI.Output(formatDocument(d))
	}
	return 0
}

type FindCaseCommand struct {
	*base.Command

	env envFlags
}

func (c *FindCaseCommand) Synopsis() string {
	return "Show a case with its attached documents"
}

func (c *FindCaseCommand) Help() string {
	return `Usage: docket operator find-case [options] <iuc>` + c.Flags().Help()
}

func (c *FindCaseCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("find-case", flag.ContinueOnError))
	c.env.register(f)
	return f
}

func (c *FindCaseCommand) Run(args []string) int {
	f := c.Flags()
	env := setup(c.Command, f, &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	if f.NArg() != 1 {
		c.UI.Error("expected a single <iuc>")
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	view, err := env.Manager.QueryCase(ctx, c.env.caller(), f.Arg(0))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error finding case: %v", err))
		return 1
	}

	cs := view.Case
	c.UI.Output(fmt.Sprintf("IUC:          %s", cs.Code))
	c.UI.Output(fmt.Sprintf("Tipo:         %s", cs.Type))
	c.UI.Output(fmt.Sprintf("Implicado:    %s", cs.Implicated))
	c.UI.Output(fmt.Sprintf("Estado:       %s", cs.Status))
	c.UI.Output(fmt.Sprintf("Visibilidad:  %s", cs.Visibility))
	c.UI.Output(fmt.Sprintf("Apertura:     %s", cs.OpenedAt.Format(listTimeLayout)))
	if cs.ClosedAt != nil {
		c.UI.Output(fmt.Sprintf("Cierre:       %s", cs.ClosedAt.Format(listTimeLayout)))
	}
	if cs.Description != "" {
		c.UI.Output(fmt.Sprintf("Descripción:  %s", cs.Description))
	}
	c.UI.Output("Adjuntos:")
	c.UI.Output(view.Summary)
	return 0
}
