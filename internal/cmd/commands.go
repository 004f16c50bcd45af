package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/procuraduria/docket/internal/cmd/base"
	"github.com/procuraduria/docket/internal/cmd/commands/migrate"
	"github.com/procuraduria/docket/internal/cmd/commands/operator"
	"github.com/procuraduria/docket/internal/cmd/commands/version"
)

// Commands is the mapping of all available docket commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := &base.Command{
		Log: log,
		UI:  ui,
	}

	Commands = map[string]cli.CommandFactory{
		"migrate": func() (cli.Command, error) {
			return &migrate.Command{Command: b}, nil
		},
		"operator": func() (cli.Command, error) {
			return &operator.Command{Command: b}, nil
		},
		"operator stats": func() (cli.Command, error) {
			return &operator.StatsCommand{Command: b}, nil
		},
		"operator list-documents": func() (cli.Command, error) {
			return &operator.ListDocumentsCommand{Command: b}, nil
		},
		"operator list-cases": func() (cli.Command, error) {
			return &operator.ListCasesCommand{Command: b}, nil
		},
		"operator list-petitions": func() (cli.Command, error) {
			return &operator.ListPetitionsCommand{Command: b}, nil
		},
		"operator find-document": func() (cli.Command, error) {
			return &operator.FindDocumentCommand{Command: b}, nil
		},
		"operator find-case": func() (cli.Command, error) {
			return &operator.FindCaseCommand{Command: b}, nil
		},
		"operator open-case": func() (cli.Command, error) {
			return &operator.OpenCaseCommand{Command: b}, nil
		},
		"operator register-document": func() (cli.Command, error) {
			return &operator.RegisterDocumentCommand{Command: b}, nil
		},
		"operator archive-case": func() (cli.Command, error) {
			return &operator.ArchiveCaseCommand{Command: b}, nil
		},
		"operator set-case-status": func() (cli.Command, error) {
			return &operator.SetCaseStatusCommand{Command: b}, nil
		},
		"operator rename-case": func() (cli.Command, error) {
			return &operator.RenameCaseCommand{Command: b}, nil
		},
		"operator answer-petition": func() (cli.Command, error) {
			return &operator.AnswerPetitionCommand{Command: b}, nil
		},
		"operator delete-document": func() (cli.Command, error) {
			return &operator.DeleteDocumentCommand{Command: b}, nil
		},
		"operator refresh-summary": func() (cli.Command, error) {
			return &operator.RefreshSummaryCommand{Command: b}, nil
		},
		"operator export": func() (cli.Command, error) {
			return &operator.ExportCommand{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
