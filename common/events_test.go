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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClientEventTypeJSON(t *testing.T) {
	assert := assert.New(t)

	// Case 0: event types given by name
	{
		for name, expected := range map[string]ClientEventType{
			"HELLO":   ClientEventHello,
			"GOODBYE": ClientEventGoodbye,
			"goodbye": ClientEventGoodbye,
		} {
			var parsed ClientEventType
			assert.Nil(json.Unmarshal([]byte(`"`+name+`"`), &parsed))
			assert.Equal(expected, parsed)
		}
	}

	// Case 1: event types given by numeric value
	{
		for value, expected := range map[string]ClientEventType{
			"0": ClientEventUnspecified,
			"1": ClientEventHello,
			"2": ClientEventGoodbye,
		} {
			var parsed ClientEventType
			assert.Nil(json.Unmarshal([]byte(value), &parsed))
			assert.Equal(expected, parsed)
		}
	}

	// Case 2: unrecognized inputs map to unspecified
	{
		for _, input := range []string{`"NOT-AN-EVENT"`, `""`, "17", "-1"} {
			var parsed ClientEventType
			assert.Nil(json.Unmarshal([]byte(input), &parsed))
			assert.Equal(ClientEventUnspecified, parsed)
		}
	}

	// Case 3: structurally invalid inputs are rejected
	{
		var parsed ClientEventType
		assert.NotNil(json.Unmarshal([]byte(`{"a": 1}`), &parsed))
		assert.NotNil(json.Unmarshal([]byte(`true`), &parsed))
	}

	// Case 4: round trip through a client event
	{
		original := ClientEvent{ClientID: uuid.NewString(), Type: ClientEventHello}
		serialized, err := json.Marshal(&original)
		assert.Nil(err)
		var parsed ClientEvent
		assert.Nil(json.Unmarshal(serialized, &parsed))
		assert.Equal(original.ClientID, parsed.ClientID)
		assert.Equal(ClientEventHello, parsed.Type)
	}
}
