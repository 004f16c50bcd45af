package operator

import (
	"flag"
	"fmt"
	"time"

	"github.com/procuraduria/docket/internal/cmd/base"
	"github.com/procuraduria/docket/pkg/lifecycle"
)

type RegisterDocumentCommand struct {
	*base.Command

	env             envFlags
	flagKind        string
	flagNumber      string
	flagYear        int
	flagTitle       string
	flagDescription string
	flagLink        string
	flagCase        string
	flagRulingKind  string
}

func (c *RegisterDocumentCommand) Synopsis() string {
	return "Register a document, optionally attached to a case"
}

func (c *RegisterDocumentCommand) Help() string {
	return `Usage: docket operator register-document [options]

  Registers a document. With -case the document is attached to that case
  and receives an IUS derived from the case code.` + c.Flags().Help()
}

func (c *RegisterDocumentCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("register-document", flag.ContinueOnError))
	c.env.register(f)
	f.StringVar(&c.flagKind, "kind", "", "(Required) Document kind, for example AUTO or FALLO.")
	f.StringVar(&c.flagNumber, "number", "", "(Required) Document number.")
	f.IntVar(&c.flagYear, "year", 0, "Document year. Defaults to the current year.")
	f.StringVar(&c.flagTitle, "title", "", "(Required) Document title.")
	f.StringVar(&c.flagDescription, "description", "", "Document description.")
	f.StringVar(&c.flagLink, "link", "", "Link to the document file.")
	f.StringVar(&c.flagCase, "case", "", "IUC of the case to attach the document to.")
	f.StringVar(&c.flagRulingKind, "ruling-kind", "F", "IUS kind of an attached document: F (ruling) or A (order).")
	return f
}

func (c *RegisterDocumentCommand) Run(args []string) int {
	env := setup(c.Command, c.Flags(), &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	year := c.flagYear
	if year == 0 {
		year = time.Now().Year()
	}

	ctx, cancel := signalContext()
	defer cancel()

	d, err := env.Manager.RegisterDocument(ctx, c.env.caller(), lifecycle.RegisterDocumentInput{
		Kind:           c.flagKind,
		Number:         c.flagNumber,
		Year:           year,
		Title:          c.flagTitle,
		Description:    c.flagDescription,
		Link:           c.flagLink,
		ParentCaseCode: c.flagCase,
		RulingKind:     c.flagRulingKind,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error registering document: %v", err))
		return 1
	}

	if ius := d.IUSValue(); ius != "" {
		c.UI.Info(fmt.Sprintf("Registered %s as %s in %s", d.Label(), ius, d.AttachedTo()))
	} else {
		c.UI.Info(fmt.Sprintf("Registered %s", d.Label()))
	}
	return 0
}

type DeleteDocumentCommand struct {
	*base.Command

	env     envFlags
	flagYes bool
}

func (c *DeleteDocumentCommand) Synopsis() string {
	return "Delete every document with a number"
}

func (c *DeleteDocumentCommand) Help() string {
	return `Usage: docket operator delete-document -yes [options] <number>

  Deletes all documents registered with <number> and refreshes the
  attachment summaries of the affected cases. -yes is required.` + c.Flags().Help()
}

func (c *DeleteDocumentCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("delete-document", flag.ContinueOnError))
	c.env.register(f)
	f.BoolVar(&c.flagYes, "yes", false, "Confirm the deletion.")
	return f
}

func (c *DeleteDocumentCommand) Run(args []string) int {
	f := c.Flags()
	env := setup(c.Command, f, &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	if f.NArg() != 1 {
		c.UI.Error("expected a single <number>")
		return 1
	}
	if !c.flagYes {
		c.UI.Error("refusing to delete without -yes")
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	deleted, err := env.Manager.DeleteDocuments(ctx, c.env.caller(), f.Arg(0))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error deleting documents: %v", err))
		return 1
	}
	for _, d := range deleted {
		c.UI.Output("deleted " + formatDocument(d))
	}
	c.UI.Info(fmt.Sprintf("Deleted %d document(s)", len(deleted)))
	return 0
}
