package commands

import (
	"errors"
	"io"

	"github.com/spf13/cobra"

	"github.com/DawPlus/healing-server-sub000/internal/bridge"
	"github.com/DawPlus/healing-server-sub000/internal/printer"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
	"github.com/DawPlus/healing-server-sub000/internal/surveys"
)

var (
	applyRosterPath string
	applyStrict     bool
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a roster file to every survey module",
	Long: `Load context and participants from a YAML file, mount every configured
survey module, broadcast once and print the per-module result.

Exits non-zero when the roster is rejected. With --strict it also exits
non-zero when any module failed or exposes no update operation. Modules that
only follow the bus, such as vibra, are reported as bus only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := applyRoster(projectDir, applyRosterPath, applyStrict, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return err
	},
}

func init() {
	applyCmd.Flags().StringVarP(&applyRosterPath, "roster", "r", "", "Roster YAML file (context + participants)")
	applyCmd.Flags().BoolVar(&applyStrict, "strict", false, "Fail when any module did not sync")
	_ = applyCmd.MarkFlagRequired("roster")
	rootCmd.AddCommand(applyCmd)
}

func applyRoster(dir, rosterPath string, strict bool, out, errOut io.Writer) (bridge.Summary, error) {
	p := printer.New(out, errOut)
	rt, err := newRuntime(dir, runtimeOptions{})
	if err != nil {
		return bridge.Summary{}, p.Error("Could not start", err.Error())
	}
	defer rt.close()

	f, err := roster.LoadFile(rosterPath)
	if err != nil {
		return bridge.Summary{}, p.Error("Roster file unreadable", err.Error())
	}
	if err := rt.orch.Store().Load(f); err != nil {
		return bridge.Summary{}, p.Error("Roster file rejected", err.Error(),
			"check agency ids against the agencies in .healing/config.yaml")
	}

	forms, err := surveys.NewAll(rt.orch.Modules())
	if err != nil {
		return bridge.Summary{}, p.Error("Could not build modules", err.Error())
	}
	for _, form := range forms {
		unmount, err := rt.orch.Mount(form.ID(), surveys.Handle(form), form.OnBroadcast)
		if err != nil {
			return bridge.Summary{}, p.Error("Could not mount "+string(form.ID()), err.Error())
		}
		defer unmount()
	}
	p.Step("applying %d participants to %d modules", len(f.Participants), len(forms))

	summary, err := rt.orch.ApplyToAllModules()
	if err != nil {
		var verr *roster.ValidationError
		if errors.As(err, &verr) {
			return summary, p.Error("Roster rejected", verr.Error(),
				"give every participant a name",
				"add at least one participant")
		}
		return summary, p.Error("Apply failed", err.Error())
	}
	p.Summary(summary, rt.orch.Modules())
	if strict && !summary.OK() {
		return summary, p.Error("Not every module synced", summary.String())
	}
	return summary, nil
}
