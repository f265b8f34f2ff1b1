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

import "github.com/spf13/viper"

// ===============================================================================
// HTTP Related Config

// HTTPServerConfig defines the HTTP server parameters
type HTTPServerConfig struct {
	// ListenOn is the interface the HTTP server will listen on
	ListenOn string `mapstructure:"listen_on" json:"listen_on" validate:"required,ip"`
	// Port is the port the HTTP server will listen on
	Port uint16 `mapstructure:"listen_port" json:"listen_port" validate:"required,gt=0,lt=65536"`
	// ReadTimeout is the maximum duration for reading the entire
	// request, including the body in seconds. A zero or negative
	// value means there will be no timeout.
	ReadTimeout int `mapstructure:"read_timeout_sec" json:"read_timeout_sec" validate:"gte=0"`
	// WriteTimeout is the maximum duration before timing out
	// writes of the response in seconds. A zero or negative value
	// means there will be no timeout.
	WriteTimeout int `mapstructure:"write_timeout_sec" json:"write_timeout_sec" validate:"gte=0"`
	// IdleTimeout is the maximum amount of time to wait for the
	// next request when keep-alives are enabled in seconds. If
	// IdleTimeout is zero, the value of ReadTimeout is used. If
	// both are zero, there is no timeout.
	IdleTimeout int `mapstructure:"idle_timeout_sec" json:"idle_timeout_sec" validate:"gte=0"`
}

// HTTPRequestLogging defines HTTP request logging parameters
type HTTPRequestLogging struct {
	// RequestIDHeader is the HTTP header containing the API request ID
	RequestIDHeader string `mapstructure:"request_id_header" json:"request_id_header"`
	// DoNotLogHeaders is the list of headers to not include in logging metadata
	DoNotLogHeaders []string `mapstructure:"do_not_log_headers" json:"do_not_log_headers"`
}

// HTTPConfig defines HTTP API / server parameters
type HTTPConfig struct {
	// Server defines HTTP server parameters
	Server HTTPServerConfig `mapstructure:"server_config" json:"server_config" validate:"required,dive"`
	// Logging defines operation logging parameters
	Logging HTTPRequestLogging `mapstructure:"logging_config" json:"logging_config" validate:"required,dive"`
}

// ===============================================================================
// Notification Service Related Config

// ServiceEndpointConfig defines notification API endpoint config
type ServiceEndpointConfig struct {
	// PathPrefix is the end-point path prefix for the notification APIs
	PathPrefix string `mapstructure:"path_prefix" json:"path_prefix" validate:"required"`
}

// ServiceConfig defines configuration for the notification API server
type ServiceConfig struct {
	// HTTPSetting is the HTTP API / server parameters for the notification API server
	HTTPSetting HTTPConfig `mapstructure:"api_server" json:"api_server" validate:"required,dive"`
	// Endpoints is the API endpoint config parameters for the notification API server
	Endpoints ServiceEndpointConfig `mapstructure:"endpoint_config" json:"endpoint_config" validate:"required,dive"`
}

// ===============================================================================
// Client Status Registry Related Config

// RegistryConfig defines client status registry parameters
type RegistryConfig struct {
	// EventProcessingDelayMS is the artificial processing delay in milliseconds applied
	// to each client event before it is recorded
	EventProcessingDelayMS int `mapstructure:"event_processing_delay_ms" json:"event_processing_delay_ms" validate:"gte=0"`
}

// ===============================================================================
// Notification Client Related Config

// ClientConfig defines parameters for reaching the notification API server
type ClientConfig struct {
	// ServerURL is the base URL of the notification API server
	ServerURL string `mapstructure:"server_url" json:"server_url" validate:"required,url"`
	// RequestTimeout is the max duration of one REST request in seconds
	RequestTimeout int `mapstructure:"request_timeout_sec" json:"request_timeout_sec" validate:"gte=1"`
	// RequestIDHeader is the HTTP header carrying the caller provided request ID
	RequestIDHeader string `mapstructure:"request_id_header" json:"request_id_header"`
}

// ===============================================================================
// Complete Config

// SystemConfig defines the complete system config
type SystemConfig struct {
	// Service are the notification API server configs
	Service ServiceConfig `mapstructure:"service" json:"service" validate:"required,dive"`
	// Registry are the client status registry configs
	Registry RegistryConfig `mapstructure:"registry" json:"registry" validate:"required,dive"`
	// Client are the notification client configs
	Client ClientConfig `mapstructure:"client" json:"client" validate:"required,dive"`
}

// ===============================================================================

// InstallDefaultConfigValues installs default config parameters in viper
func InstallDefaultConfigValues() {
	// Default notification service settings
	viper.SetDefault("service.endpoint_config.path_prefix", "/")
	viper.SetDefault("service.api_server.server_config.listen_on", "0.0.0.0")
	viper.SetDefault("service.api_server.server_config.listen_port", 3000)
	viper.SetDefault("service.api_server.server_config.read_timeout_sec", 60)
	viper.SetDefault("service.api_server.server_config.write_timeout_sec", 60)
	viper.SetDefault("service.api_server.server_config.idle_timeout_sec", 600)
	viper.SetDefault(
		"service.api_server.logging_config.request_id_header", "Notify-Request-ID",
	)
	viper.SetDefault(
		"service.api_server.logging_config.do_not_log_headers", []string{
			"WWW-Authenticate", "Authorization", "Proxy-Authenticate", "Proxy-Authorization",
		},
	)

	// Default registry settings
	viper.SetDefault("registry.event_processing_delay_ms", 10)

	// Default client settings
	viper.SetDefault("client.server_url", "http://127.0.0.1:3000")
	viper.SetDefault("client.request_timeout_sec", 30)
	viper.SetDefault("client.request_id_header", "Notify-Request-ID")
}
