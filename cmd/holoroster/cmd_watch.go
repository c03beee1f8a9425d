// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/holoroster/pkg/ux"
)

// wsURL converts the configured http(s) base URL to its ws(s) form.
func wsURL(base string) string {
	url := strings.TrimRight(base, "/")
	if after, ok := strings.CutPrefix(url, "https"); ok {
		url = "wss" + after
	} else if after, ok := strings.CutPrefix(url, "http"); ok {
		url = "ws" + after
	}
	return url + "/v1/events/ws"
}

func runWatch(cmd *cobra.Command, args []string) {
	endpoint := wsURL(config.ServerURL)
	ws, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		fail("failed to connect to the event stream", err)
	}
	defer ws.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		// Closing unblocks the read loop below.
		_ = ws.Close()
	}()

	ux.Title("Watching roster events (Ctrl-C to stop)")
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			logger.Info("event stream closed", "error", err)
			return
		}
		var event map[string]any
		if err := json.Unmarshal(raw, &event); err != nil {
			ux.Info(string(raw))
			continue
		}
		printEvent(event)
	}
}

func printEvent(event map[string]any) {
	if action, ok := event["action"].(string); ok {
		ux.KeyValue(action, fmt.Sprintf("%v", event["subscriberId"]))
		return
	}
	name, _ := event["event"].(string)
	switch name {
	case "assign":
		ux.Item(fmt.Sprintf("assigned: apprentice %v %s master %v",
			event["apprenticeId"], ux.IconArrow.Render(), event["masterId"]))
	case "unassign":
		ux.Item(fmt.Sprintf("unassigned: apprentice %v from master %v",
			event["apprenticeId"], event["masterId"]))
	case "promote":
		ux.Item(fmt.Sprintf("promoted: member %v", event["memberId"]))
	case "roster-reloaded":
		ux.Item(fmt.Sprintf("roster reloaded: %v new members", event["added"]))
	default:
		ux.Info(fmt.Sprintf("%v", event))
	}
}
