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
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

func status(cmd *cobra.Command, args []string) error {
	var health struct {
		Status string `json:"status"`
	}
	if err := client.getJSON("/healthz", &health); err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", client.base, health.Status)
	return nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Args:  cobra.NoArgs,
		Short: "Check that the service is up",
		RunE:  status,
	}
}

func send(cmd *cobra.Command, args []string) error {
	severity, _ := cmd.Flags().GetString("severity")

	body := map[string]interface{}{
		"channel": args[0],
		"payload": args[1],
	}
	if severity != "" {
		body["severity"] = severity
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	err := client.do(http.MethodPost, "/v1/messages", body, &resp,
		http.StatusAccepted)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", resp.Status, resp.ID)
	return nil
}

func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [flags] <channel> <payload>",
		Args:  cobra.ExactArgs(2),
		Short: "Publish a test message to a channel",
		RunE:  send,
	}
	cmd.Flags().StringP("severity", "s", "", "debug|info|warn|error")
	return cmd
}

func decay(cmd *cobra.Command, args []string) error {
	hold, _ := cmd.Flags().GetFloat64("hold")
	tail, _ := cmd.Flags().GetFloat64("decay")

	body := map[string]float64{
		"hold_seconds":  hold,
		"decay_seconds": tail,
	}
	var resp struct {
		HoldSeconds  float64 `json:"hold_seconds"`
		DecaySeconds float64 `json:"decay_seconds"`
	}
	err := client.do(http.MethodPost, "/v1/control/decay", body, &resp,
		http.StatusOK)
	if err != nil {
		return err
	}
	fmt.Printf("hold %gs, decay %gs\n", resp.HoldSeconds, resp.DecaySeconds)
	return nil
}

func decayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decay [flags]",
		Args:  cobra.NoArgs,
		Short: "Set the hold/decay fade schedule",
		RunE:  decay,
	}
	cmd.Flags().Float64("hold", 30.0, "full-weight plateau, in seconds")
	cmd.Flags().Float64("decay", 10.0, "fade tail, in seconds")
	return cmd
}

type colorConfig struct {
	AssignmentMode  string `json:"assignment_mode"`
	InheritanceMode string `json:"inheritance_mode"`
}

func getColors(cmd *cobra.Command, args []string) error {
	var resp colorConfig
	if err := client.getJSON("/v1/control/colors", &resp); err != nil {
		return err
	}
	fmt.Printf("assignment %s, inheritance %s\n",
		resp.AssignmentMode, resp.InheritanceMode)
	return nil
}

func setColors(cmd *cobra.Command, args []string) error {
	body := colorConfig{
		AssignmentMode:  args[0],
		InheritanceMode: args[1],
	}
	var resp colorConfig
	err := client.do(http.MethodPost, "/v1/control/colors", &body, &resp,
		http.StatusOK)
	if err != nil {
		return err
	}
	fmt.Printf("assignment %s, inheritance %s\n",
		resp.AssignmentMode, resp.InheritanceMode)
	return nil
}

func colorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "colors <subcmd>",
		Short: "Inspect or replace the color policy",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Args:  cobra.NoArgs,
		Short: "Show the current color policy",
		RunE:  getColors,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <increment|hash> <unique|root|family>",
		Args:  cobra.ExactArgs(2),
		Short: "Replace the color policy (resets color state)",
		RunE:  setColors,
	})
	return cmd
}

func prune(cmd *cobra.Command, args []string) error {
	body := map[string]string{"channel": args[0]}
	err := client.do(http.MethodPost, "/v1/control/prune", body, nil,
		http.StatusNoContent)
	if err != nil {
		return err
	}
	fmt.Printf("pruned %s\n", args[0])
	return nil
}

func pruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune <channel>",
		Args:  cobra.ExactArgs(1),
		Short: "Remove a channel subtree",
		RunE:  prune,
	}
}

// channelPath escapes a dotted channel for use in a URL path segment.
func channelPath(channel string) string {
	return url.PathEscape(channel)
}
