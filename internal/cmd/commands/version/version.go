package version

import (
	"github.com/procuraduria/docket/internal/cmd/base"
	"github.com/procuraduria/docket/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the docket version"
}

func (c *Command) Help() string {
	return "Usage: docket version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output("docket " + version.Version)
	return 0
}
