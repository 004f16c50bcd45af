package operator

import (
	"flag"
	"fmt"
	"strings"

	"github.com/procuraduria/docket/internal/cmd/base"
)

type AnswerPetitionCommand struct {
	*base.Command

	env envFlags
}

func (c *AnswerPetitionCommand) Synopsis() string {
	return "Answer a petition"
}

func (c *AnswerPetitionCommand) Help() string {
	return `Usage: docket operator answer-petition [options] <radicado> <answer>...

  Records the answer, marks the petition answered and sends the answer to
  the requester by direct message. Answering again replaces the answer.` + c.Flags().Help()
}

func (c *AnswerPetitionCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("answer-petition", flag.ContinueOnError))
	c.env.register(f)
	return f
}

func (c *AnswerPetitionCommand) Run(args []string) int {
	f := c.Flags()
	env := setup(c.Command, f, &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	if f.NArg() < 2 {
		c.UI.Error("expected <radicado> and <answer>")
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()

	out, err := env.Manager.AnswerPetition(ctx, c.env.caller(), f.Arg(0), strings.Join(f.Args()[1:], " "))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error answering petition: %v", err))
		return 1
	}
	c.UI.Info(fmt.Sprintf("Answered %s", out.Petition.Radicado))
	if !out.RequesterNotified {
		c.UI.Warn("The requester could not be notified by direct message")
	}
	return 0
}
