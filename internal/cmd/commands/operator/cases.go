package operator

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/procuraduria/docket/internal/cmd/base"
	"github.com/procuraduria/docket/pkg/lifecycle"
)

type OpenCaseCommand struct {
	*base.Command

	env             envFlags
	flagType        string
	flagImplicated  string
	flagDescription string
	flagVisibility  string
	flagSequence    int
}

func (c *OpenCaseCommand) Synopsis() string {
	return "Open a new case"
}

func (c *OpenCaseCommand) Help() string {
	return `Usage: docket operator open-case [options]

  Opens a case in the in-progress state and announces it to the records
  channel. The IUC is generated unless -sequence is set.` + c.Flags().Help()
}

func (c *OpenCaseCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("open-case", flag.ContinueOnError))
	c.env.register(f)
	f.StringVar(&c.flagType, "type", "", "(Required) Case type: E (ethical) or D (disciplinary).")
	f.StringVar(&c.flagImplicated, "implicated", "", "(Required) Person under investigation.")
	f.StringVar(&c.flagDescription, "description", "", "Case description.")
	f.StringVar(&c.flagVisibility, "visibility", "PUBLICO", "PUBLICO or RESERVADO.")
	f.IntVar(&c.flagSequence, "sequence", 0, "Use this sequence number instead of the next one.")
	return f
}

func (c *OpenCaseCommand) Run(args []string) int {
	env := setup(c.Command, c.Flags(), &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	cs, err := env.Manager.OpenCase(ctx, c.env.caller(), lifecycle.OpenCaseInput{
		Type:        c.flagType,
		Implicated:  c.flagImplicated,
		Description: c.flagDescription,
		Visibility:  c.flagVisibility,
		Sequence:    c.flagSequence,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error opening case: %v", err))
		return 1
	}
	c.UI.Info(fmt.Sprintf("Opened case %s", cs.Code))
	return 0
}

type ArchiveCaseCommand struct {
	*base.Command

	env envFlags
}

func (c *ArchiveCaseCommand) Synopsis() string {
	return "Archive a case"
}

func (c *ArchiveCaseCommand) Help() string {
	return `Usage: docket operator archive-case [options] <iuc>

  Archives the case and stamps its closing date. Archived cases accept no
  new documents.` + c.Flags().Help()
}

func (c *ArchiveCaseCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("archive-case", flag.ContinueOnError))
	c.env.register(f)
	return f
}

func (c *ArchiveCaseCommand) Run(args []string) int {
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

	cs, err := env.Manager.ArchiveCase(ctx, c.env.caller(), f.Arg(0))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error archiving case: %v", err))
		return 1
	}
	c.UI.Info(fmt.Sprintf("Archived case %s", cs.Code))
	return 0
}

type SetCaseStatusCommand struct {
	*base.Command

	env envFlags
}

func (c *SetCaseStatusCommand) Synopsis() string {
	return "Change the status of a case"
}

func (c *SetCaseStatusCommand) Help() string {
	return `Usage: docket operator set-case-status [options] <iuc> <status>

  Status is one of EN TRAMITE, EN INVESTIGACION, ARCHIVADO, SANCIONADO or
  ABSUELTO, or the English name (in-progress, under-investigation,
  archived, sanctioned, acquitted). Use archive-case to stamp the closing
  date.` + c.Flags().Help()
}

func (c *SetCaseStatusCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("set-case-status", flag.ContinueOnError))
	c.env.register(f)
	return f
}

func (c *SetCaseStatusCommand) Run(args []string) int {
	f := c.Flags()
	env := setup(c.Command, f, &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	if f.NArg() != 2 {
		c.UI.Error("expected <iuc> and <status>")
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	cs, err := env.Manager.SetCaseStatus(ctx, c.env.caller(), f.Arg(0), f.Arg(1))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error setting case status: %v", err))
		return 1
	}
	c.UI.Info(fmt.Sprintf("Case %s is now %s", cs.Code, cs.Status))
	return 0
}

type RenameCaseCommand struct {
	*base.Command

	env envFlags
}

func (c *RenameCaseCommand) Synopsis() string {
	return "Change the sequence number of a case"
}

func (c *RenameCaseCommand) Help() string {
	return `Usage: docket operator rename-case [options] <iuc> <sequence>

  Renames the case to the same type and year with a new sequence number
  and moves its attached documents along.` + c.Flags().Help()
}

func (c *RenameCaseCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("rename-case", flag.ContinueOnError))
	c.env.register(f)
	return f
}

func (c *RenameCaseCommand) Run(args []string) int {
	f := c.Flags()
	env := setup(c.Command, f, &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	if f.NArg() != 2 {
		c.UI.Error("expected <iuc> and <sequence>")
		return 1
	}
	seq, err := strconv.Atoi(f.Arg(1))
	if err != nil {
		c.UI.Error(fmt.Sprintf("invalid sequence %q", f.Arg(1)))
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	code, err := env.Manager.RenameCase(ctx, c.env.caller(), f.Arg(0), seq)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error renaming case: %v", err))
		return 1
	}
	c.UI.Info(fmt.Sprintf("Renamed %s to %s", f.Arg(0), code))
	return 0
}

type RefreshSummaryCommand struct {
	*base.Command

	env envFlags
}

func (c *RefreshSummaryCommand) Synopsis() string {
	return "Rewrite the attachments field of a case announcement"
}

func (c *RefreshSummaryCommand) Help() string {
	return `Usage: docket operator refresh-summary [options] <iuc>

  Recomputes the attachments summary of the case and edits it into the
  announcement posted when the case was opened.` + c.Flags().Help()
}

func (c *RefreshSummaryCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("refresh-summary", flag.ContinueOnError))
	c.env.register(f)
	return f
}

func (c *RefreshSummaryCommand) Run(args []string) int {
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

	summary, err := env.Manager.RefreshCaseSummary(ctx, f.Arg(0))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error refreshing summary: %v", err))
		return 1
	}
	c.UI.Info(fmt.Sprintf("Summary of %s refreshed", f.Arg(0)))
	c.UI.Output(summary)
	return 0
}
