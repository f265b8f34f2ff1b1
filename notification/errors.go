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

import "errors"

// ErrEmptyClientID returned when a client event names no client
var ErrEmptyClientID = errors.New("empty client identifier")

// ErrInvalidMessageType returned when a client event carries a message type
// other than HELLO or GOODBYE
var ErrInvalidMessageType = errors.New("invalid message type")
