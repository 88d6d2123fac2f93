package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/DawPlus/healing-server-sub000/internal/printer"
	"github.com/DawPlus/healing-server-sub000/internal/roster"
	"github.com/DawPlus/healing-server-sub000/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the roster console",
	Long: `Open the interactive console. The roster and context are restored from
.healing/state/roster.yaml and saved back on exit.

Keys: tab switch pane · a add · d remove · enter edit · u unify from the first
row · m mount/unmount module · ctrl+s apply to all modules · q quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	p := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	rt, err := newRuntime(projectDir, runtimeOptions{})
	if err != nil {
		return p.Error("Could not start", err.Error())
	}
	defer rt.close()

	store := rt.orch.Store()
	if f, ok, err := roster.LoadFileIfExists(rt.statePath()); err != nil {
		rt.logger.Warn().Err(err).Msg("ignoring saved roster")
	} else if ok {
		if err := store.Load(f); err != nil {
			rt.logger.Warn().Err(err).Msg("saved roster rejected")
		}
	}

	stop := rt.serveMetrics(metricsAddr)
	defer stop()

	app, err := tui.NewApp(rt.orch, tui.WithLogbook(rt.logbook))
	if err != nil {
		return p.Error("Could not start", err.Error())
	}
	defer app.Close()

	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return p.Error("Console crashed", err.Error())
	}
	if err := roster.SaveFile(rt.statePath(), store.Snapshot()); err != nil {
		return p.Error("Roster not saved", err.Error())
	}
	rt.logger.Info().Int("participants", store.Len()).Msg("session saved")
	return nil
}
