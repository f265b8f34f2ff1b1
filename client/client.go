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

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alonevenhaim/user-notification-system/apis"
	"github.com/alonevenhaim/user-notification-system/common"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/google/uuid"
)

// NotificationClient client for the notification service REST API
type NotificationClient interface {
	// SendHello report a HELLO event for a client
	SendHello(ctxt context.Context, clientID string) (string, error)
	// SendGoodbye report a GOODBYE event for a client
	SendGoodbye(ctxt context.Context, clientID string) (string, error)
	// ReportEvent report one client connection event
	ReportEvent(ctxt context.Context, event common.ClientEvent) (string, error)
	// GetClientStatus fetch the connection status of one client. A client with no
	// recorded events yields an empty result.
	GetClientStatus(
		ctxt context.Context, clientID string,
	) (map[string]common.ClientConnectionStatus, error)
	// GetAllClientStatuses fetch the connection status of every known client
	GetAllClientStatuses(
		ctxt context.Context,
	) (map[string]common.ClientConnectionStatus, error)
	// Ready check whether the notification service is ready for use
	Ready(ctxt context.Context) error
}

// restNotificationClient implements NotificationClient over the service REST API
type restNotificationClient struct {
	goutils.Component
	httpClient      *http.Client
	serverURL       string
	requestIDHeader string
}

// GetNotificationClient define NotificationClient
func GetNotificationClient(
	config common.ClientConfig, instance string,
) (NotificationClient, error) {
	if _, err := url.Parse(config.ServerURL); err != nil {
		return nil, err
	}
	logTags := log.Fields{
		"module":    "client",
		"component": "notification-client",
		"instance":  instance,
	}
	return &restNotificationClient{
		Component: goutils.Component{LogTags: logTags},
		httpClient: &http.Client{
			Timeout: time.Second * time.Duration(config.RequestTimeout),
		},
		serverURL:       strings.TrimSuffix(config.ServerURL, "/"),
		requestIDHeader: config.RequestIDHeader,
	}, nil
}

// SendHello report a HELLO event for a client
func (c *restNotificationClient) SendHello(
	ctxt context.Context, clientID string,
) (string, error) {
	return c.ReportEvent(
		ctxt, common.ClientEvent{ClientID: clientID, Type: common.ClientEventHello},
	)
}

// SendGoodbye report a GOODBYE event for a client
func (c *restNotificationClient) SendGoodbye(
	ctxt context.Context, clientID string,
) (string, error) {
	return c.ReportEvent(
		ctxt, common.ClientEvent{ClientID: clientID, Type: common.ClientEventGoodbye},
	)
}

// ReportEvent report one client connection event
func (c *restNotificationClient) ReportEvent(
	ctxt context.Context, event common.ClientEvent,
) (string, error) {
	payload, err := json.Marshal(&event)
	if err != nil {
		log.WithError(err).WithFields(c.LogTags).Error("Unable to serialize client event")
		return "", err
	}

	respBody, respCode, err := c.doRequest(
		ctxt, http.MethodPost, c.serverURL+"/v1/client/event", bytes.NewReader(payload),
	)
	if err != nil {
		return "", err
	}

	var parsed apis.APIRestRespClientEvent
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		log.WithError(err).WithFields(c.LogTags).Error("Unable to parse event response")
		return "", err
	}
	if respCode != http.StatusOK || !parsed.Success {
		err := fmt.Errorf("event report rejected with status %d: %s", respCode, respBody)
		log.WithError(err).WithFields(c.LogTags).Errorf(
			"Failed to send %s for client %s", event.Type, event.ClientID,
		)
		return "", err
	}

	log.WithFields(c.LogTags).Infof(
		"Successfully sent %s for client %s", event.Type, event.ClientID,
	)
	return parsed.Message, nil
}

// GetClientStatus fetch the connection status of one client
func (c *restNotificationClient) GetClientStatus(
	ctxt context.Context, clientID string,
) (map[string]common.ClientConnectionStatus, error) {
	endpoint := fmt.Sprintf(
		"%s/v1/client/%s/status", c.serverURL, url.PathEscape(clientID),
	)
	return c.fetchStatuses(ctxt, endpoint)
}

// GetAllClientStatuses fetch the connection status of every known client
func (c *restNotificationClient) GetAllClientStatuses(
	ctxt context.Context,
) (map[string]common.ClientConnectionStatus, error) {
	return c.fetchStatuses(ctxt, c.serverURL+"/v1/client/status")
}

// Ready check whether the notification service is ready for use
func (c *restNotificationClient) Ready(ctxt context.Context) error {
	respBody, respCode, err := c.doRequest(ctxt, http.MethodGet, c.serverURL+"/ready", nil)
	if err != nil {
		return err
	}
	if respCode != http.StatusOK {
		return fmt.Errorf("service not ready: status %d: %s", respCode, respBody)
	}
	return nil
}

// fetchStatuses helper function for running one status query
func (c *restNotificationClient) fetchStatuses(
	ctxt context.Context, endpoint string,
) (map[string]common.ClientConnectionStatus, error) {
	respBody, respCode, err := c.doRequest(ctxt, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var parsed apis.APIRestRespClientStatuses
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		log.WithError(err).WithFields(c.LogTags).Error("Unable to parse status response")
		return nil, err
	}
	if respCode != http.StatusOK || !parsed.Success {
		err := fmt.Errorf("status query rejected with status %d: %s", respCode, respBody)
		log.WithError(err).WithFields(c.LogTags).Error("Failed to query client status")
		return nil, err
	}

	log.WithFields(c.LogTags).Infof("Retrieved status for %d clients", len(parsed.ClientStatuses))
	return parsed.ClientStatuses, nil
}

// doRequest helper function for running one REST request against the service
func (c *restNotificationClient) doRequest(
	ctxt context.Context, method string, endpoint string, payload io.Reader,
) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctxt, method, endpoint, payload)
	if err != nil {
		log.WithError(err).WithFields(c.LogTags).Errorf(
			"Unable to define %s request against %s", method, endpoint,
		)
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithFields(c.LogTags).Errorf(
			"%s request against %s failed", method, endpoint,
		)
		return nil, 0, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).WithFields(c.LogTags).Error("Failed to close response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).WithFields(c.LogTags).Error("Unable to read response body")
		return nil, 0, err
	}
	return respBody, resp.StatusCode, nil
}
