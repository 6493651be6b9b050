package main

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/maxai/internal/tui"
)

func newChatCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with MaxAI in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The terminal belongs to the UI; logs only go to LOG_FILE.
			app, err := bootstrap(cmd.Context(), opts, io.Discard)
			if err != nil {
				return err
			}
			defer app.Close()

			model := tui.New(app.Controller, tui.Options{Persona: app.Persona})
			defer model.Close()

			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}
