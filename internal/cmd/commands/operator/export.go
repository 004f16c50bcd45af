package operator

import (
	"flag"
	"fmt"
	"sort"

	"github.com/procuraduria/docket/internal/cmd/base"
	"github.com/procuraduria/docket/pkg/export"
)

type ExportCommand struct {
	*base.Command

	env     envFlags
	flagDir string
}

func (c *ExportCommand) Synopsis() string {
	return "Export documents, cases and petitions as CSV"
}

func (c *ExportCommand) Help() string {
	return `Usage: docket operator export [options]

  Writes documentos.csv, casos.csv and pqrs.csv into -dir.` + c.Flags().Help()
}

func (c *ExportCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("export", flag.ContinueOnError))
	c.env.register(f)
	f.StringVar(&c.flagDir, "dir", "export", "Directory to write the CSV files to.")
	return f
}

func (c *ExportCommand) Run(args []string) int {
	env := setup(c.Command, c.Flags(), &c.env, args)
	if env == nil {
		return 1
	}
	defer env.Close()

	ctx, cancel := signalContext()
	defer cancel()

	res, err := export.NewExporter(env.DB, nil).Export(ctx, c.flagDir)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error exporting: %v", err))
		return 1
	}

	names := make([]string, 0, len(res.Files))
	for name := range res.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.UI.Info(fmt.Sprintf("%s: %d rows", name, res.Files[name]))
	}
	return 0
}
