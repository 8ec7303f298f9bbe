package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/Azlouk-Ahmed/iot-delivery-tracking-system-sub000/internal/hub/core/model"
)

var hubURL string

func main() {
	root := &cobra.Command{
		Use:           "trackctl",
		Short:         "Inspect a running tracking hub",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&hubURL, "hub", "http://localhost:8080", "Base URL of the tracking hub.")

	root.AddCommand(newSessionsCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newSessionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List active vehicle sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := fetchSessions()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No active sessions.")
				return nil
			}

			table := uitable.New()
			table.AddRow("VEHICLE", "DRIVER", "MODEL", "COMPANY", "SESSION", "STARTED", "LAST SEEN")
			for _, s := range sessions {
				table.AddRow(
					s.VehicleID,
					s.DriverName,
					s.Model,
					s.CompanyName,
					s.SessionID,
					s.StartedAt.Format(time.RFC3339),
					fmt.Sprintf("%s ago", time.Since(s.LastSeenAt).Round(time.Second)),
				)
			}
			fmt.Println(table)
			return nil
		},
	}
}

func fetchSessions() ([]model.VehicleSession, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(hubURL + "/api/sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to reach hub at %s: %w", hubURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hub returned %s", resp.Status)
	}

	var sessions []model.VehicleSession
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}
