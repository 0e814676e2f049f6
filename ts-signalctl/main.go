/*
 * COPYRIGHT 2020 Brightgate Inc.  All rights reserved.
 *
 * This copyright notice is Copyright Management Information under 17 USC 1202
 * and is included to protect this work and deter copyright infringement.
 * Removal or alteration of this Copyright Management Information without the
 * express written permission of Brightgate Inc is prohibited, and any
 * such unauthorized removal or alteration will be a violation of federal law.
 */

// ts-signalctl drives a running ts.signald over its HTTP control surface.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tomazk/envcfg"
)

const defaultURL = "http://127.0.0.1:8013"

var environ struct {
	URL string `envcfg:"TS_SIGNALCTL_URL"`
}

var client *ctlClient

// ctlClient is a thin JSON client for the daemon's API.
type ctlClient struct {
	base string
	hc   *http.Client
}

func newCtlClient(base string) *ctlClient {
	return &ctlClient{
		base: base,
		hc:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *ctlClient) do(method, path string, body interface{},
	out interface{}, want int) error {

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "contacting %s", c.base)
	}
	defer resp.Body.Close()

	payload, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != want {
		var detail struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(payload, &detail) == nil && detail.Detail != "" {
			return fmt.Errorf("%s: %s", resp.Status, detail.Detail)
		}
		return fmt.Errorf("unexpected response: %s", resp.Status)
	}

	if out != nil {
		return json.Unmarshal(payload, out)
	}
	return nil
}

func (c *ctlClient) getJSON(path string, out interface{}) error {
	return c.do(http.MethodGet, path, nil, out, http.StatusOK)
}

func silenceUsage(cmd *cobra.Command, args []string) {
	// Set after argument validation so that bad arguments still print
	// the usage, but command failures don't.
	cmd.SilenceUsage = true
}

func first(opts ...string) string {
	for _, opt := range opts {
		if opt != "" {
			return opt
		}
	}
	return ""
}

func main() {
	if err := envcfg.Unmarshal(&environ); err != nil {
		fmt.Printf("Environment Error: %s\n", err)
		os.Exit(1)
	}

	rootCmd := cobra.Command{
		Use:              os.Args[0],
		PersistentPreRun: silenceUsage,
	}
	rootCmd.PersistentFlags().StringP("url", "u", "",
		"base URL of the ts.signald service")
	cobra.OnInitialize(func() {
		url, _ := rootCmd.PersistentFlags().GetString("url")
		client = newCtlClient(first(url, environ.URL, defaultURL))
	})

	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(sendCmd())
	rootCmd.AddCommand(decayCmd())
	rootCmd.AddCommand(colorsCmd())
	rootCmd.AddCommand(pruneCmd())
	rootCmd.AddCommand(layoutCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(clientConfigCmd())

	err := rootCmd.Execute()
	os.Exit(map[bool]int{true: 0, false: 1}[err == nil])
}
