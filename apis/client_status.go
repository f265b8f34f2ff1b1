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

package apis

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/alonevenhaim/user-notification-system/common"
	"github.com/alonevenhaim/user-notification-system/notification"
	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/gorilla/mux"
)

// APIRestClientStatusHandler REST handler for client events and status queries
type APIRestClientStatusHandler struct {
	goutils.RestAPIHandler
	core notification.ClientEventController
}

// GetAPIRestClientStatusHandler define APIRestClientStatusHandler
func GetAPIRestClientStatusHandler(
	core notification.ClientEventController,
	httpConfig *common.HTTPConfig,
) (APIRestClientStatusHandler, error) {
	logTags := log.Fields{
		"module":    "rest",
		"component": "client-status",
	}
	return APIRestClientStatusHandler{
		RestAPIHandler: goutils.RestAPIHandler{
			Component: goutils.Component{
				LogTags: logTags,
				LogTagModifiers: []goutils.LogMetadataModifier{
					goutils.ModifyLogMetadataByRestRequestParam,
				},
			},
			CallRequestIDHeaderField: &httpConfig.Logging.RequestIDHeader,
			DoNotLogHeaders: func() map[string]bool {
				result := map[string]bool{}
				for _, v := range httpConfig.Logging.DoNotLogHeaders {
					result[v] = true
				}
				return result
			}(),
		}, core: core,
	}, nil
}

// Write logging support
func (h APIRestClientStatusHandler) Write(p []byte) (n int, err error) {
	log.WithFields(h.LogTags).Infof("%s", p)
	return len(p), nil
}

// =======================================================================
// Client event reporting

// -----------------------------------------------------------------------

// APIRestRespClientEvent response for reporting one client event
type APIRestRespClientEvent struct {
	goutils.RestAPIBaseResponse
	// Message is the human readable confirmation for the processed event
	Message string `json:"message"`
}

// ReportClientEvent godoc
// @Summary Report a client connection event
// @Description Record a HELLO or GOODBYE event from a client, updating that client's
// connection status
// @tags Notification
// @Accept json
// @Produce json
// @Param Notify-Request-ID header string false "User provided request ID to match against logs"
// @Param event body common.ClientEvent true "Client connection event"
// @Success 200 {object} APIRestRespClientEvent "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 404 {string} string "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Header 200,400,500 {string} Notify-Request-ID "Request ID to match against logs"
// @Router /v1/client/event [post]
func (h APIRestClientStatusHandler) ReportClientEvent(w http.ResponseWriter, r *http.Request) {
	localLogTags := h.GetLogTagsForContext(r.Context())
	var respCode int
	var respBody interface{}
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, respBody, nil); err != nil {
			log.WithError(err).WithFields(localLogTags).Error("Failed to form response")
		}
	}()

	// Parse the parameters
	var event common.ClientEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		msg := "Unable to parse request body"
		log.WithError(err).WithFields(localLogTags).Error(msg)
		respCode = http.StatusBadRequest
		respBody = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
		return
	}
	event.ReceivedAt = time.Now().UTC()

	confirmation, err := h.core.ProcessClientEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, notification.ErrEmptyClientID) ||
			errors.Is(err, notification.ErrInvalidMessageType) {
			msg := "Client event rejected"
			log.WithError(err).WithFields(localLogTags).Warn(msg)
			respCode = http.StatusBadRequest
			respBody = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, err.Error())
			return
		}
		msg := "Failed to process client event"
		log.WithError(err).WithFields(localLogTags).Error(msg)
		respCode = http.StatusInternalServerError
		respBody = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, err.Error())
		return
	}

	respCode = http.StatusOK
	respBody = APIRestRespClientEvent{
		RestAPIBaseResponse: goutils.RestAPIBaseResponse{
			Success: true, RequestID: h.ReadRequestIDFromContext(r.Context()),
		}, Message: confirmation,
	}
}

// ReportClientEventHandler Wrapper around ReportClientEvent
func (h APIRestClientStatusHandler) ReportClientEventHandler() http.HandlerFunc {
	return h.LoggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
		h.ReportClientEvent(w, r)
	})
}

// =======================================================================
// Client status queries

// -----------------------------------------------------------------------

// APIRestRespClientStatuses response for client status queries
type APIRestRespClientStatuses struct {
	goutils.RestAPIBaseResponse
	// ClientStatuses the set of client connection statuses mapped against client ID
	ClientStatuses map[string]common.ClientConnectionStatus `json:"client_statuses"`
}

// GetAllClientStatuses godoc
// @Summary Query the status of all clients
// @Description Query the current connection status of every client known to the service
// @tags Notification
// @Produce json
// @Param Notify-Request-ID header string false "User provided request ID to match against logs"
// @Success 200 {object} APIRestRespClientStatuses "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 404 {string} string "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Header 200,400,500 {string} Notify-Request-ID "Request ID to match against logs"
// @Router /v1/client/status [get]
func (h APIRestClientStatusHandler) GetAllClientStatuses(w http.ResponseWriter, r *http.Request) {
	localLogTags := h.GetLogTagsForContext(r.Context())
	statuses := h.core.QueryClientStatuses(r.Context(), "")
	resp := APIRestRespClientStatuses{
		RestAPIBaseResponse: goutils.RestAPIBaseResponse{
			Success: true, RequestID: h.ReadRequestIDFromContext(r.Context()),
		}, ClientStatuses: statuses,
	}

	if err := h.WriteRESTResponse(w, http.StatusOK, resp, nil); err != nil {
		log.WithError(err).WithFields(localLogTags).Error("Failed to form response")
	}
}

// GetAllClientStatusesHandler Wrapper around GetAllClientStatuses
func (h APIRestClientStatusHandler) GetAllClientStatusesHandler() http.HandlerFunc {
	return h.LoggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
		h.GetAllClientStatuses(w, r)
	})
}

// -----------------------------------------------------------------------

// GetClientStatus godoc
// @Summary Query the status of one client
// @Description Query the current connection status of one client. A client with no
// recorded events yields an empty result, not an error.
// @tags Notification
// @Produce json
// @Param Notify-Request-ID header string false "User provided request ID to match against logs"
// @Param clientID path string true "Client ID"
// @Success 200 {object} APIRestRespClientStatuses "success"
// @Failure 400 {object} goutils.RestAPIBaseResponse "error"
// @Failure 404 {string} string "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Header 200,400,500 {string} Notify-Request-ID "Request ID to match against logs"
// @Router /v1/client/{clientID}/status [get]
func (h APIRestClientStatusHandler) GetClientStatus(w http.ResponseWriter, r *http.Request) {
	localLogTags := h.GetLogTagsForContext(r.Context())
	var respCode int
	var respBody interface{}
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, respBody, nil); err != nil {
			log.WithError(err).WithFields(localLogTags).Error("Failed to form response")
		}
	}()

	vars := mux.Vars(r)
	clientID, ok := vars["clientID"]
	if !ok {
		msg := "No client ID provided"
		log.WithFields(localLogTags).Errorf(msg)
		respCode = http.StatusBadRequest
		respBody = h.GetStdRESTErrorMsg(r.Context(), http.StatusBadRequest, msg, msg)
		return
	}

	statuses := h.core.QueryClientStatuses(r.Context(), clientID)
	respCode = http.StatusOK
	respBody = APIRestRespClientStatuses{
		RestAPIBaseResponse: goutils.RestAPIBaseResponse{
			Success: true, RequestID: h.ReadRequestIDFromContext(r.Context()),
		}, ClientStatuses: statuses,
	}
}

// GetClientStatusHandler Wrapper around GetClientStatus
func (h APIRestClientStatusHandler) GetClientStatusHandler() http.HandlerFunc {
	return h.LoggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
		h.GetClientStatus(w, r)
	})
}

// =======================================================================
// Health Checks

// -----------------------------------------------------------------------

// Alive godoc
// @Summary For liveness check
// @Description Will return success to indicate notification REST API module is live
// @tags Notification
// @Produce json
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {string} string "error"
// @Failure 404 {string} string "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /alive [get]
func (h APIRestClientStatusHandler) Alive(w http.ResponseWriter, r *http.Request) {
	localLogTags := h.GetLogTagsForContext(r.Context())
	if err := h.WriteRESTResponse(
		w, http.StatusOK, h.GetStdRESTSuccessMsg(r.Context()), nil,
	); err != nil {
		log.WithError(err).WithFields(localLogTags).Error("Failed to form response")
	}
}

// AliveHandler Wrapper around Alive
func (h APIRestClientStatusHandler) AliveHandler() http.HandlerFunc {
	return h.LoggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
		h.Alive(w, r)
	})
}

// -----------------------------------------------------------------------

// Ready godoc
// @Summary For readiness check
// @Description Will return success if notification REST API module is ready for use
// @tags Notification
// @Produce json
// @Success 200 {object} goutils.RestAPIBaseResponse "success"
// @Failure 400 {string} string "error"
// @Failure 404 {string} string "error"
// @Failure 500 {object} goutils.RestAPIBaseResponse "error"
// @Router /ready [get]
func (h APIRestClientStatusHandler) Ready(w http.ResponseWriter, r *http.Request) {
	msg := "not ready"
	localLogTags := h.GetLogTagsForContext(r.Context())
	var respCode int
	var respBody interface{}
	defer func() {
		if err := h.WriteRESTResponse(w, respCode, respBody, nil); err != nil {
			log.WithError(err).WithFields(localLogTags).Error("Failed to form response")
		}
	}()

	if h.core != nil {
		respCode = http.StatusOK
		respBody = h.GetStdRESTSuccessMsg(r.Context())
	} else {
		respCode = http.StatusInternalServerError
		respBody = h.GetStdRESTErrorMsg(r.Context(), http.StatusInternalServerError, msg, msg)
	}
}

// ReadyHandler Wrapper around Ready
func (h APIRestClientStatusHandler) ReadyHandler() http.HandlerFunc {
	return h.LoggingMiddleware(func(w http.ResponseWriter, r *http.Request) {
		h.Ready(w, r)
	})
}
