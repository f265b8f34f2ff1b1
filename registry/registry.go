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

package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/alonevenhaim/user-notification-system/common"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
)

// ClientStatusRegistry in-memory registry tracking the connection status of clients.
//
// A client is created in the registry on its first recorded status, and its record
// remains for the life of the process. A client without a record is implicitly
// in the unknown status. All operations are safe for concurrent use.
type ClientStatusRegistry interface {
	// SetClientStatus record a new connection status for a client, creating the client
	// record if this is the first status recorded against this client ID
	SetClientStatus(
		ctxt context.Context, clientID string, newStatus common.ClientConnectionStatus,
	) error
	// GetClientStatus fetch the last recorded connection status of one client. The
	// second return value indicates whether the client is known to the registry.
	GetClientStatus(
		ctxt context.Context, clientID string,
	) (common.ClientConnectionStatus, bool)
	// GetAllClientStatuses fetch the connection status of every known client as a
	// snapshot taken at a single instant
	GetAllClientStatuses(ctxt context.Context) map[string]common.ClientConnectionStatus
}

// clientStatusRegistryImpl implements ClientStatusRegistry
type clientStatusRegistryImpl struct {
	goutils.Component
	statuses map[string]common.ClientConnectionStatus
	lock     sync.RWMutex
}

// GetClientStatusRegistry define ClientStatusRegistry
func GetClientStatusRegistry(instance string) (ClientStatusRegistry, error) {
	logTags := log.Fields{
		"module":    "registry",
		"component": "client-status",
		"instance":  instance,
	}
	return &clientStatusRegistryImpl{
		Component: goutils.Component{LogTags: logTags},
		statuses:  make(map[string]common.ClientConnectionStatus),
	}, nil
}

// SetClientStatus record a new connection status for a client
func (r *clientStatusRegistryImpl) SetClientStatus(
	ctxt context.Context, clientID string, newStatus common.ClientConnectionStatus,
) error {
	if clientID == "" {
		return fmt.Errorf("unable to record status against an empty client ID")
	}
	if newStatus != common.ConnectionStatusConnected &&
		newStatus != common.ConnectionStatusDisconnected {
		return fmt.Errorf("client connection status '%s' is not recordable", newStatus)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.statuses[clientID] = newStatus
	log.WithFields(r.LogTags).Debugf("Client %s now %s", clientID, newStatus)
	return nil
}

// GetClientStatus fetch the last recorded connection status of one client
func (r *clientStatusRegistryImpl) GetClientStatus(
	ctxt context.Context, clientID string,
) (common.ClientConnectionStatus, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	status, ok := r.statuses[clientID]
	if !ok {
		return common.ConnectionStatusUnknown, false
	}
	return status, true
}

// GetAllClientStatuses fetch the connection status of every known client
func (r *clientStatusRegistryImpl) GetAllClientStatuses(
	ctxt context.Context,
) map[string]common.ClientConnectionStatus {
	r.lock.RLock()
	defer r.lock.RUnlock()
	snapshot := make(map[string]common.ClientConnectionStatus, len(r.statuses))
	for clientID, status := range r.statuses {
		snapshot[clientID] = status
	}
	return snapshot
}
