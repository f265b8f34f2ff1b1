// Copyright 2022 The user-notification-system Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alonevenhaim/user-notification-system/client"
	"github.com/alonevenhaim/user-notification-system/common"
	"github.com/apex/log"
)

// demoReadyAttempts readiness probes against the embedded server before giving up
const demoReadyAttempts = 50

// RunEndToEndDemo demonstrate the full notification workflow against a server
// embedded in this process. Returns an error if any step gives an unexpected result.
func RunEndToEndDemo(
	runtimeContext context.Context,
	wg *sync.WaitGroup,
	serviceConfig *common.ServiceConfig,
	registryConfig common.RegistryConfig,
	clientConfig common.ClientConfig,
	instance string,
) error {
	logTags := log.Fields{
		"module":    "cmd",
		"component": "demo",
		"instance":  instance,
	}

	demoContext, cancel := context.WithCancel(runtimeContext)
	defer cancel()

	// Run the server within this process
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := RunNotificationServer(
			demoContext, serviceConfig, registryConfig, instance,
		); err != nil {
			log.WithError(err).WithFields(logTags).Error("Embedded server failure")
		}
	}()

	remote, err := client.GetNotificationClient(clientConfig, instance)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define notification client")
		return err
	}

	if err := waitForServerReady(demoContext, remote); err != nil {
		log.WithError(err).WithFields(logTags).Error("Embedded server never became ready")
		return err
	}

	demoClient := "demo_client_1"

	// Announce the demo client
	message, err := remote.SendHello(demoContext, demoClient)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("HELLO report failed")
		return err
	}
	fmt.Printf("Hello message sent: %s\n", message)

	// The client must now read back as connected
	statuses, err := remote.GetClientStatus(demoContext, demoClient)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Status query failed")
		return err
	}
	if statuses[demoClient] != common.ConnectionStatusConnected {
		err := fmt.Errorf(
			"client '%s' reads '%s', expected '%s'",
			demoClient, statuses[demoClient], common.ConnectionStatusConnected,
		)
		log.WithError(err).WithFields(logTags).Error("Unexpected client status")
		return err
	}
	fmt.Printf("Client status: %v\n", statuses)

	// Sign the demo client off again
	message, err = remote.SendGoodbye(demoContext, demoClient)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("GOODBYE report failed")
		return err
	}
	fmt.Printf("Goodbye message sent: %s\n", message)

	statuses, err = remote.GetClientStatus(demoContext, demoClient)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Status query failed")
		return err
	}
	if statuses[demoClient] != common.ConnectionStatusDisconnected {
		err := fmt.Errorf(
			"client '%s' reads '%s', expected '%s'",
			demoClient, statuses[demoClient], common.ConnectionStatusDisconnected,
		)
		log.WithError(err).WithFields(logTags).Error("Unexpected client status")
		return err
	}
	fmt.Printf("Final status: %v\n", statuses)

	// Malformed reports must be rejected
	if _, err := remote.ReportEvent(
		demoContext, common.ClientEvent{ClientID: "   ", Type: common.ClientEventHello},
	); err == nil {
		err := fmt.Errorf("blank client identifier was accepted")
		log.WithError(err).WithFields(logTags).Error("Validation probe failed")
		return err
	} else {
		fmt.Printf("Blank client identifier rejected: %s\n", err)
	}
	if _, err := remote.ReportEvent(
		demoContext, common.ClientEvent{ClientID: demoClient, Type: common.ClientEventUnspecified},
	); err == nil {
		err := fmt.Errorf("unspecified message type was accepted")
		log.WithError(err).WithFields(logTags).Error("Validation probe failed")
		return err
	} else {
		fmt.Printf("Unspecified message type rejected: %s\n", err)
	}

	// Dump the full registry
	allStatuses, err := remote.GetAllClientStatuses(demoContext)
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Status query failed")
		return err
	}
	display, err := json.MarshalIndent(allStatuses, "", "  ")
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to serialize statuses")
		return err
	}
	fmt.Printf("All client statuses:\n%s\n", display)

	fmt.Printf("Demo completed successfully\n")
	return nil
}

// waitForServerReady poll the server readiness endpoint until it responds
func waitForServerReady(ctxt context.Context, remote client.NotificationClient) error {
	var lastErr error
	for attempt := 0; attempt < demoReadyAttempts; attempt++ {
		if lastErr = remote.Ready(ctxt); lastErr == nil {
			return nil
		}
		select {
		case <-ctxt.Done():
			return ctxt.Err()
		case <-time.After(time.Millisecond * 100):
		}
	}
	return fmt.Errorf("server not ready: %w", lastErr)
}
