// Package config provides configuration loading for the mappool tool.
//
// # Usage
//
//	cfg := config.NewConfig()
//	if err := config.Load("mappool.yaml", cfg); err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
//
// Load only overwrites the fields present in the file, so start from
// NewConfig to keep defaults.
//
// # Environment Variable Substitution
//
// ${VAR_NAME} anywhere in the file is replaced by the variable's value
// before parsing; unset variables become empty strings:
//
//	metrics:
//	  addr: "${MAPPOOL_METRICS_ADDR}"
//
// # Example Configuration
//
//	pool:
//	  name: objects
//	  sharded: true
//	  shards: 8
//	stress:
//	  workers: 16
//	  objects: 100000
//	  timeout: 30s
//	log:
//	  level: debug
//	  encoding: console
//	metrics:
//	  enabled: true
//	  addr: ":9090"
package config
