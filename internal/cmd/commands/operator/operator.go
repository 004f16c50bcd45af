package operator

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/cli"

	"github.com/procuraduria/docket/internal/cmd/base"
	"github.com/procuraduria/docket/pkg/authz"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Perform operator-specific tasks"
}

func (c *Command) Help() string {
	return `Usage: docket operator <subcommand> [options] [args]

  This command groups subcommands for operators working directly against
  the docket database. Operators pass every role check and are recorded
  under the name given with -as.`
}

func (c *Command) Run(args []string) int {
	return cli.RunResultHelp
}

// envFlags are accepted by every operator subcommand.
type envFlags struct {
	config string
	as     string
}

func (e *envFlags) register(f *base.FlagSet) {
	f.StringVar(&e.config, "config", "",
		"Path to the docket config file. Defaults and environment overrides apply when unset.")
	f.StringVar(&e.as, "as", "",
		"Operator name recorded on the records this command creates.")
}

func (e *envFlags) caller() authz.Caller {
	return authz.LocalOperator(e.as)
}

// setup parses args and opens the environment. On failure it reports through
// the UI and returns nil.
func setup(b *base.Command, f *base.FlagSet, flags *envFlags, args []string) *base.Env {
	if err := f.Parse(args); err != nil {
		b.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return nil
	}
	env, err := b.NewEnv(flags.config)
	if err != nil {
		b.UI.Error(err.Error())
		return nil
	}
	return env
}

// signalContext is cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
