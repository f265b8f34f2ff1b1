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

// RunClientEventReport send one client connection event to the notification server
func RunClientEventReport(
	runtimeContext context.Context,
	clientConfig common.ClientConfig,
	clientID string,
	eventType common.ClientEventType,
	instance string,
) error {
	logTags := log.Fields{
		"module":    "cmd",
		"component": "client-event-report",
		"instance":  instance,
	}

	remote, err := client.GetNotificationClient(clientConfig, instance)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define notification client")
		return err
	}

	message, err := remote.ReportEvent(
		runtimeContext, common.ClientEvent{ClientID: clientID, Type: eventType},
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).
			Errorf("Failed to report %s for client '%s'", eventType, clientID)
		return err
	}

	fmt.Printf("%s\n", message)
	return nil
}

// RunClientStatusQuery query the notification server for client connection statuses.
// An empty clientID requests the statuses of all known clients.
func RunClientStatusQuery(
	runtimeContext context.Context,
	clientConfig common.ClientConfig,
	clientID string,
	instance string,
) error {
	logTags := log.Fields{
		"module":    "cmd",
		"component": "client-status-query",
		"instance":  instance,
	}

	remote, err := client.GetNotificationClient(clientConfig, instance)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define notification client")
		return err
	}

	return fetchAndPrintStatuses(runtimeContext, remote, clientID, logTags)
}

// RunClientStatusWatch periodically poll the notification server for client connection
// statuses until the runtime context stops.
func RunClientStatusWatch(
	runtimeContext context.Context,
	wg *sync.WaitGroup,
	clientConfig common.ClientConfig,
	clientID string,
	interval time.Duration,
	instance string,
) error {
	logTags := log.Fields{
		"module":    "cmd",
		"component": "client-status-watch",
		"instance":  instance,
	}

	remote, err := client.GetNotificationClient(clientConfig, instance)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define notification client")
		return err
	}

	watchTimer, err := common.GetIntervalTimerInstance("status-watch", runtimeContext, wg)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define watch timer")
		return err
	}

	if err := watchTimer.Start(interval, func() error {
		return fetchAndPrintStatuses(runtimeContext, remote, clientID, logTags)
	}, false); err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to start watch timer")
		return err
	}

	<-runtimeContext.Done()
	return watchTimer.Stop()
}

func fetchAndPrintStatuses(
	ctxt context.Context,
	remote client.NotificationClient,
	clientID string,
	logTags log.Fields,
) error {
	var statuses map[string]common.ClientConnectionStatus
	var err error
	if clientID != "" {
		statuses, err = remote.GetClientStatus(ctxt, clientID)
	} else {
		statuses, err = remote.GetAllClientStatuses(ctxt)
	}
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Status query failed")
		return err
	}

	display, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		log.WithError(err).WithFields(logTags).Error("Unable to serialize statuses")
		return err
	}
	fmt.Printf("%s\n", display)
	return nil
}
