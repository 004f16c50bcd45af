package operator

import (
	"flag"
	"fmt"

	"github.com/procuraduria/docket/internal/cmd/base"
)

type StatsCommand struct {
	*base.Command

	env envFlags
}

func (c *StatsCommand) Synopsis() string {
	return "Show record totals"
}

func (c *StatsCommand) Help() string {
	return `Usage: docket operator stats [options]

  Counts documents, cases and petitions.` + c.Flags().Help()
}

func (c *StatsCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("stats", flag.ContinueOnError))
	c.env.register(f)
	return f
}

func (c *StatsCommand) Run(args []string) int {
	env := setup(c.Command, c.Flags(), &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	s, err := env.Manager.Stats(ctx)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error reading stats: %v", err))
		return 1
	}

	c.UI.Output(fmt.Sprintf("Documents:          %d (%d attached)", s.Documents, s.AttachedDocuments))
	c.UI.Output(fmt.Sprintf("Cases:              %d (%d archived)", s.Cases, s.ArchivedCases))
	c.UI.Output(fmt.Sprintf("Petitions:          %d", s.Petitions))
	c.UI.Output(fmt.Sprintf("  pending:          %d", s.PendingPetitions))
	c.UI.Output(fmt.Sprintf("  answered:         %d", s.AnsweredPetitions))
	return 0
}
