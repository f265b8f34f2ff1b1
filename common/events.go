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

package common

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ClientConnectionStatus connection status of one client
type ClientConnectionStatus string

const (
	// ConnectionStatusUnknown a client which never reported an event
	ConnectionStatusUnknown ClientConnectionStatus = "unknown"
	// ConnectionStatusConnected the client last reported a HELLO event
	ConnectionStatusConnected ClientConnectionStatus = "connected"
	// ConnectionStatusDisconnected the client last reported a GOODBYE event
	ConnectionStatusDisconnected ClientConnectionStatus = "disconnected"
)

// ClientEventType the type of event a client reports
type ClientEventType int

const (
	// ClientEventUnspecified unrecognized event type
	ClientEventUnspecified ClientEventType = 0
	// ClientEventHello client announcing it has connected
	ClientEventHello ClientEventType = 1
	// ClientEventGoodbye client announcing it is disconnecting
	ClientEventGoodbye ClientEventType = 2
)

// String implements fmt.Stringer
func (t ClientEventType) String() string {
	switch t {
	case ClientEventHello:
		return "HELLO"
	case ClientEventGoodbye:
		return "GOODBYE"
	default:
		return "UNSPECIFIED"
	}
}

// MarshalJSON encodes the event type as its name
func (t ClientEventType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes an event type given either as its name or its numeric
// value. Unrecognized inputs map to ClientEventUnspecified.
func (t *ClientEventType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch strings.ToUpper(name) {
		case "HELLO":
			*t = ClientEventHello
		case "GOODBYE":
			*t = ClientEventGoodbye
		default:
			*t = ClientEventUnspecified
		}
		return nil
	}
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("client event type must be a string or an integer")
	}
	switch value {
	case int(ClientEventHello):
		*t = ClientEventHello
	case int(ClientEventGoodbye):
		*t = ClientEventGoodbye
	default:
		*t = ClientEventUnspecified
	}
	return nil
}

// ClientEvent representing one client connection event
type ClientEvent struct {
	// ClientID identifies the client this event is for
	ClientID string `json:"client_id" validate:"required"`
	// Type the type of the event
	Type ClientEventType `json:"message_type"`
	// ReceivedAt when the request handler received the event
	ReceivedAt time.Time `json:"received_at,omitempty"`
}
