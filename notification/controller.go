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

package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alonevenhaim/user-notification-system/common"
	"github.com/alonevenhaim/user-notification-system/registry"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// ClientEventController processes client connection events and status queries
// against the client status registry
type ClientEventController interface {
	// ProcessClientEvent record the status change described by one client event.
	// Returns a confirmation message naming the client and its new status. Events
	// failing validation are rejected with ErrEmptyClientID or ErrInvalidMessageType
	// before the registry is touched.
	ProcessClientEvent(ctxt context.Context, event common.ClientEvent) (string, error)
	// QueryClientStatuses fetch client connection statuses. Given a client ID, the
	// result holds at most that client's entry; a client with no recorded events
	// yields an empty result. Given an empty ID, the result holds every known client.
	QueryClientStatuses(
		ctxt context.Context, clientID string,
	) map[string]common.ClientConnectionStatus
}

// clientEventControllerImpl implements ClientEventController
type clientEventControllerImpl struct {
	goutils.Component
	registry        registry.ClientStatusRegistry
	processingDelay time.Duration
}

// GetClientEventController define ClientEventController
func GetClientEventController(
	clientRegistry registry.ClientStatusRegistry,
	processingDelay time.Duration,
	instance string,
) (ClientEventController, error) {
	logTags := log.Fields{
		"module":    "notification",
		"component": "event-controller",
		"instance":  instance,
	}
	return clientEventControllerImpl{
		Component:       goutils.Component{LogTags: logTags},
		registry:        clientRegistry,
		processingDelay: processingDelay,
	}, nil
}

// ProcessClientEvent record the status change described by one client event
func (c clientEventControllerImpl) ProcessClientEvent(
	ctxt context.Context, event common.ClientEvent,
) (string, error) {
	log.WithFields(c.LogTags).Infof(
		"Received message from client: %s, type: %s", event.ClientID, event.Type,
	)

	clientID := strings.TrimSpace(event.ClientID)
	if clientID == "" {
		return "", ErrEmptyClientID
	}

	var newStatus common.ClientConnectionStatus
	switch event.Type {
	case common.ClientEventHello:
		newStatus = common.ConnectionStatusConnected
	case common.ClientEventGoodbye:
		newStatus = common.ConnectionStatusDisconnected
	default:
		log.WithFields(c.LogTags).Warnf(
			"Invalid message type for client %s: %s", clientID, event.Type,
		)
		return "", fmt.Errorf("%w: %s", ErrInvalidMessageType, event.Type)
	}

	// Simulated processing latency. This must run before the registry call so the
	// registry lock is never held across the wait.
	if c.processingDelay > 0 {
		select {
		case <-ctxt.Done():
			return "", ctxt.Err()
		case <-time.After(c.processingDelay):
		}
	}

	if err := c.registry.SetClientStatus(ctxt, clientID, newStatus); err != nil {
		log.WithError(err).WithFields(c.LogTags).Errorf(
			"Error processing message for client %s", clientID,
		)
		return "", err
	}

	log.WithFields(c.LogTags).Infof("Client %s marked as %s", clientID, newStatus)
	return fmt.Sprintf(
		"Message processed successfully for client %s, now %s", clientID, newStatus,
	), nil
}

// QueryClientStatuses fetch client connection statuses
func (c clientEventControllerImpl) QueryClientStatuses(
	ctxt context.Context, clientID string,
) map[string]common.ClientConnectionStatus {
	trimmed := strings.TrimSpace(clientID)
	if trimmed == "" {
		allStatuses := c.registry.GetAllClientStatuses(ctxt)
		log.WithFields(c.LogTags).Infof("Returned status for %d clients", len(allStatuses))
		return allStatuses
	}

	result := map[string]common.ClientConnectionStatus{}
	if status, found := c.registry.GetClientStatus(ctxt, trimmed); found {
		result[trimmed] = status
	}
	log.WithFields(c.LogTags).Infof("Returned status for %d clients", len(result))
	return result
}
