package main

import (
	"encoding/json"
	"fmt"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/architect-xyz/logterm/internal/config"
	"github.com/architect-xyz/logterm/internal/render"
	"github.com/architect-xyz/logterm/internal/session"
	"github.com/architect-xyz/logterm/internal/ui"
)

func newFollowCommand() *cobra.Command {
	var addr string
	var cols int
	var filter string

	cmd := &cobra.Command{
		Use:   "follow <log-file>",
		Short: "Stream a growing log file from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Bind
			}
			if cols == 0 {
				cols = cfg.Display.Cols
			}

			u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
			conn, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), u.String(), nil)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", u.String(), err)
			}
			defer conn.Close()

			params := session.LogsParams{Cols: cols, LogFile: args[0]}
			if filter != "" {
				params.Filter = &filter
			}
			data, err := json.Marshal(params)
			if err != nil {
				return err
			}
			req, err := json.Marshal(session.Request{ID: 1, Method: session.MethodLogs, Params: data})
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, req); err != nil {
				return err
			}

			renderer := render.NewSpanRenderer(cfg)
			events := make(chan tea.Msg, 16)
			quit := make(chan struct{})
			go func() {
				defer close(events)
				for {
					_, raw, err := conn.ReadMessage()
					if err != nil {
						return
					}
					msg := ui.Event(string(raw), renderer)
					if msg == nil {
						continue
					}
					select {
					case events <- msg:
					case <-quit:
						return
					}
				}
			}()

			model := ui.NewFollowModel(args[0], events)
			p := tea.NewProgram(model, tea.WithAltScreen())
			_, err = p.Run()
			close(quit)
			if err != nil {
				return err
			}
			return model.Err()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Server address (default from config)")
	cmd.Flags().IntVar(&cols, "cols", 0, "Wrap width in terminal cells (default from config)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only stream lines matching this regex")
	return cmd
}
