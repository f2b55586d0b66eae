// Package config loads topoconsole settings from a TOML file.
//
// Every setting has a default in code, so the file is optional. Command-line
// flags override values from the file; callers apply them after [Load].
//
//	[backend]
//	base_url = "http://192.168.142.132:8080"
//	timeout  = "10s"
//
//	[server]
//	listen           = ":3000"
//	refresh_interval = "30s"
//
//	[layout]
//	default_mode = "force"
//
//	[cache]
//	backend    = "redis"
//	redis_addr = "localhost:6379"
package config
