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
	"fmt"
	"net/http"
	"time"

	"github.com/alonevenhaim/user-notification-system/apis"
	"github.com/alonevenhaim/user-notification-system/common"
	"github.com/alonevenhaim/user-notification-system/notification"
	"github.com/alonevenhaim/user-notification-system/registry"
	"github.com/apex/log"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// RunNotificationServer run the notification API server
func RunNotificationServer(
	runtimeContext context.Context,
	serviceConfig *common.ServiceConfig,
	registryConfig common.RegistryConfig,
	instance string,
) error {
	logTags := log.Fields{
		"module":    "cmd",
		"component": "notification-server",
		"instance":  instance,
	}

	validate := validator.New()
	if err := validate.Struct(serviceConfig); err != nil {
		log.WithError(err).WithFields(logTags).Error("Invalid service configs")
		return err
	}

	clientRegistry, err := registry.GetClientStatusRegistry(instance)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define client status registry")
		return err
	}

	controller, err := notification.GetClientEventController(
		clientRegistry,
		time.Millisecond*time.Duration(registryConfig.EventProcessingDelayMS),
		instance,
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define client event controller")
		return err
	}

	httpHandler, err := apis.GetAPIRestClientStatusHandler(
		controller, &serviceConfig.HTTPSetting,
	)
	if err != nil {
		log.WithError(err).WithFields(logTags).Errorf("Unable to define HTTP handler")
		return err
	}

	// -------------------------------------------------------------------
	// Start the HTTP server

	router := mux.NewRouter()
	mainRouter := apis.RegisterPathPrefix(router, serviceConfig.Endpoints.PathPrefix, nil)

	// Client event reporting
	clientAPIRouter := apis.RegisterPathPrefix(mainRouter, "/v1/client", nil)
	_ = apis.RegisterPathPrefix(clientAPIRouter, "/event", map[string]http.HandlerFunc{
		"post": httpHandler.ReportClientEventHandler(),
	})

	// Client status queries
	_ = apis.RegisterPathPrefix(clientAPIRouter, "/status", map[string]http.HandlerFunc{
		"get": httpHandler.GetAllClientStatusesHandler(),
	})
	_ = apis.RegisterPathPrefix(clientAPIRouter, "/{clientID}/status", map[string]http.HandlerFunc{
		"get": httpHandler.GetClientStatusHandler(),
	})

	// Health check
	_ = apis.RegisterPathPrefix(mainRouter, "/alive", map[string]http.HandlerFunc{
		"get": httpHandler.AliveHandler(),
	})
	_ = apis.RegisterPathPrefix(mainRouter, "/ready", map[string]http.HandlerFunc{
		"get": httpHandler.ReadyHandler(),
	})

	// Add logging
	router.Use(func(next http.Handler) http.Handler {
		return handlers.CombinedLoggingHandler(httpHandler, next)
	})

	serverListen := fmt.Sprintf(
		"%s:%d",
		serviceConfig.HTTPSetting.Server.ListenOn,
		serviceConfig.HTTPSetting.Server.Port,
	)
	httpSrv := &http.Server{
		Addr:         serverListen,
		ReadTimeout:  time.Second * time.Duration(serviceConfig.HTTPSetting.Server.ReadTimeout),
		WriteTimeout: time.Second * time.Duration(serviceConfig.HTTPSetting.Server.WriteTimeout),
		IdleTimeout:  time.Second * time.Duration(serviceConfig.HTTPSetting.Server.IdleTimeout),
		Handler:      h2c.NewHandler(router, &http2.Server{}),
	}

	// Start the server
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("HTTP Server Failure")
		}
	}()

	log.WithFields(logTags).Infof("Started HTTP server on http://%s", serverListen)

	// ============================================================================

	<-runtimeContext.Done()

	// Stop the HTTP server
	{
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("Failure during HTTP shutdown")
		}
	}

	return nil
}
