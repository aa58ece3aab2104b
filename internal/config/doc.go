// Package config handles configuration loading for dashboard-gateway.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file (chosen by extension) with
// environment variable expansion. Load applies defaults and validates.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from DASHBOARD_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/dashboard/gateway.yaml
//  3. ~/.config/dashboard/gateway.yaml
//
// # Environment Variable Expansion
//
//	auth:
//	  jwt_secret: "${DASHBOARD_JWT_SECRET}"
//
// # Configuration Sections
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//	  environment: "production"   # forces session.secure
//
//	database:
//	  path: "/var/lib/dashboard/gateway.db"
//
//	auth:
//	  jwt_secret: "${DASHBOARD_JWT_SECRET}"  # at least 32 bytes
//	  issuer: "dashboard-gateway"
//	  token_ttl: "12h"
//
//	session:
//	  token_cookie: "dashboard_token"
//	  role_cookie: "dashboard_role"
//	  secure: true
//	  max_age: ""                 # empty: browser-session cookies
//
//	sections:                     # defaults to the four built-in sections
//	  - name: "airline"
//	    role: "Airline"
//	    entry_path: "/dashboard/airline"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
package config
