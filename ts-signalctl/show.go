/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/tatsushid/go-prettytable"
)

type layoutFrame struct {
	Path []string `json:"path"`
	Rect struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"rect"`
	State  string  `json:"state"`
	Weight float64 `json:"weight"`
	Colors struct {
		Hue        int    `json:"hue"`
		Background string `json:"background"`
	} `json:"colors"`
}

func showLayout(cmd *cobra.Command, args []string) error {
	var frames []layoutFrame
	if err := client.getJSON("/v1/layout", &frames); err != nil {
		return err
	}

	if len(frames) == 0 {
		fmt.Println("no active channels")
		return nil
	}

	table, _ := prettytable.NewTable(
		prettytable.Column{Header: "Channel"},
		prettytable.Column{Header: "X"},
		prettytable.Column{Header: "Y"},
		prettytable.Column{Header: "W"},
		prettytable.Column{Header: "H"},
		prettytable.Column{Header: "State"},
		prettytable.Column{Header: "Weight"},
		prettytable.Column{Header: "Hue"},
	)
	table.Separator = "  "

	for _, f := range frames {
		table.AddRow(strings.Join(f.Path, "."),
			fmt.Sprintf("%.3f", f.Rect.X),
			fmt.Sprintf("%.3f", f.Rect.Y),
			fmt.Sprintf("%.3f", f.Rect.Width),
			fmt.Sprintf("%.3f", f.Rect.Height),
			f.State,
			fmt.Sprintf("%.1f", f.Weight),
			f.Colors.Hue)
	}
	table.Print()
	return nil
}

func layoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Args:  cobra.NoArgs,
		Short: "Show the current treemap layout",
		RunE:  showLayout,
	}
}

type messageRecord struct {
	ID         string    `json:"id"`
	Payload    string    `json:"payload"`
	Severity   string    `json:"severity"`
	ReceivedAt time.Time `json:"received_at"`
}

func showHistory(cmd *cobra.Command, args []string) error {
	var records []messageRecord
	path := "/v1/messages/" + channelPath(args[0])
	if err := client.getJSON(path, &records); err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("no history for %s\n", args[0])
		return nil
	}

	table, _ := prettytable.NewTable(
		prettytable.Column{Header: "Received"},
		prettytable.Column{Header: "Severity"},
		prettytable.Column{Header: "ID"},
		prettytable.Column{Header: "Payload"},
	)
	table.Separator = "  "

	for _, r := range records {
		table.AddRow(r.ReceivedAt.Local().Format("15:04:05.000"),
			r.Severity, r.ID, r.Payload)
	}
	table.Print()
	return nil
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <channel>",
		Args:  cobra.ExactArgs(1),
		Short: "Show the recent messages on a channel",
		RunE:  showHistory,
	}
}

func showClientConfig(cmd *cobra.Command, args []string) error {
	var cfg json.RawMessage
	if err := client.getJSON("/v1/client/config", &cfg); err != nil {
		return err
	}

	var pretty map[string]interface{}
	if err := json.Unmarshal(cfg, &pretty); err != nil {
		return err
	}
	out, err := json.MarshalIndent(pretty, "", "\t")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", out)
	return nil
}

func clientConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "client-config",
		Args:  cobra.NoArgs,
		Short: "Show the configuration served to dashboards",
		RunE:  showClientConfig,
	}
}
