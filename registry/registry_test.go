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
	"testing"

	"github.com/alonevenhaim/user-notification-system/common"
	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestClientStatusRegistryBasicOperation(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()
	uut, err := GetClientStatusRegistry("ut-registry-basic")
	assert.Nil(err)

	// Case 0: query an unknown client
	{
		status, found := uut.GetClientStatus(utCtxt, uuid.NewString())
		assert.False(found)
		assert.Equal(common.ConnectionStatusUnknown, status)
		assert.Empty(uut.GetAllClientStatuses(utCtxt))
	}

	client1 := uuid.NewString()
	client2 := uuid.NewString()

	// Case 1: record a status for one client
	{
		assert.Nil(uut.SetClientStatus(utCtxt, client1, common.ConnectionStatusConnected))
		status, found := uut.GetClientStatus(utCtxt, client1)
		assert.True(found)
		assert.Equal(common.ConnectionStatusConnected, status)
	}

	// Case 2: overwrite the status of that client
	{
		assert.Nil(uut.SetClientStatus(utCtxt, client1, common.ConnectionStatusDisconnected))
		status, found := uut.GetClientStatus(utCtxt, client1)
		assert.True(found)
		assert.Equal(common.ConnectionStatusDisconnected, status)
	}

	// Case 3: recording the current status again changes nothing
	{
		assert.Nil(uut.SetClientStatus(utCtxt, client1, common.ConnectionStatusDisconnected))
		status, found := uut.GetClientStatus(utCtxt, client1)
		assert.True(found)
		assert.Equal(common.ConnectionStatusDisconnected, status)
	}

	// Case 4: other clients are unaffected
	{
		assert.Nil(uut.SetClientStatus(utCtxt, client2, common.ConnectionStatusConnected))
		all := uut.GetAllClientStatuses(utCtxt)
		assert.Len(all, 2)
		assert.Equal(common.ConnectionStatusDisconnected, all[client1])
		assert.Equal(common.ConnectionStatusConnected, all[client2])
	}

	// Case 5: a fetched snapshot is immune to later changes
	{
		snapshot := uut.GetAllClientStatuses(utCtxt)
		assert.Nil(uut.SetClientStatus(utCtxt, client1, common.ConnectionStatusConnected))
		assert.Equal(common.ConnectionStatusDisconnected, snapshot[client1])
		refreshed := uut.GetAllClientStatuses(utCtxt)
		assert.Equal(common.ConnectionStatusConnected, refreshed[client1])
	}

	// Case 6: mutating a snapshot does not touch the registry
	{
		snapshot := uut.GetAllClientStatuses(utCtxt)
		snapshot[client2] = common.ConnectionStatusDisconnected
		delete(snapshot, client1)
		status, found := uut.GetClientStatus(utCtxt, client2)
		assert.True(found)
		assert.Equal(common.ConnectionStatusConnected, status)
		assert.Len(uut.GetAllClientStatuses(utCtxt), 2)
	}
}

func TestClientStatusRegistryRecordPreconditions(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()
	uut, err := GetClientStatusRegistry("ut-registry-precondition")
	assert.Nil(err)

	// Case 0: empty client ID
	assert.NotNil(uut.SetClientStatus(utCtxt, "", common.ConnectionStatusConnected))
	assert.Empty(uut.GetAllClientStatuses(utCtxt))

	// Case 1: statuses which are not recordable
	assert.NotNil(
		uut.SetClientStatus(utCtxt, uuid.NewString(), common.ConnectionStatusUnknown),
	)
	assert.NotNil(
		uut.SetClientStatus(utCtxt, uuid.NewString(), common.ClientConnectionStatus("idle")),
	)
	assert.Empty(uut.GetAllClientStatuses(utCtxt))
}

func TestClientStatusRegistryConcurrentDistinctClients(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()
	uut, err := GetClientStatusRegistry("ut-registry-distinct")
	assert.Nil(err)

	clientCount := 40
	wg := sync.WaitGroup{}
	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			clientID := fmt.Sprintf("client-%d", idx)
			status := common.ConnectionStatusConnected
			if idx%2 == 1 {
				status = common.ConnectionStatusDisconnected
			}
			assert.Nil(uut.SetClientStatus(utCtxt, clientID, status))
		}(i)
	}
	wg.Wait()

	all := uut.GetAllClientStatuses(utCtxt)
	assert.Len(all, clientCount)
	for i := 0; i < clientCount; i++ {
		expected := common.ConnectionStatusConnected
		if i%2 == 1 {
			expected = common.ConnectionStatusDisconnected
		}
		assert.Equal(expected, all[fmt.Sprintf("client-%d", i)])
	}
}

func TestClientStatusRegistryConcurrentSameClient(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	utCtxt := context.Background()
	uut, err := GetClientStatusRegistry("ut-registry-same-client")
	assert.Nil(err)

	clientID := uuid.NewString()
	writeCount := 50
	wg := sync.WaitGroup{}
	for i := 0; i < writeCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			status := common.ConnectionStatusConnected
			if idx%2 == 1 {
				status = common.ConnectionStatusDisconnected
			}
			assert.Nil(uut.SetClientStatus(utCtxt, clientID, status))
		}(i)
	}
	wg.Wait()

	// Exactly one record exists, holding one of the written statuses
	all := uut.GetAllClientStatuses(utCtxt)
	assert.Len(all, 1)
	final, found := uut.GetClientStatus(utCtxt, clientID)
	assert.True(found)
	assert.Contains(
		[]common.ClientConnectionStatus{
			common.ConnectionStatusConnected, common.ConnectionStatusDisconnected,
		},
		final,
	)
}
