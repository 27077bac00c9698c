package config

import "runtime"

// Server holds runtime tuning for the host process.
type Server struct {
	Addr   string `yaml:"addr" json:"addr"`
	DBPath string `yaml:"db_path" json:"db_path"`

	// Channel buffer sizes
	BroadcastChannelBuffer int `yaml:"broadcast_channel_buffer" json:"broadcast_channel_buffer"`
	ClientSendBuffer       int `yaml:"client_send_buffer" json:"client_send_buffer"`

	// Connection pools
	DBMaxOpenConns int `yaml:"db_max_open_conns" json:"db_max_open_conns"`
	DBMaxIdleConns int `yaml:"db_max_idle_conns" json:"db_max_idle_conns"`

	// Read-through cache in front of the blob store
	BlobCacheSize int `yaml:"blob_cache_size" json:"blob_cache_size"`

	// In-memory feedback events kept per session
	EventLogCapacity int `yaml:"event_log_capacity" json:"event_log_capacity"`

	// Rate limiting
	MaxMessagesPerSecond int `yaml:"max_messages_per_second" json:"max_messages_per_second"`
}

// DefaultServer returns sensible defaults for production.
func DefaultServer() Server {
	numCPU := runtime.NumCPU()

	return Server{
		Addr:   ":8080",
		DBPath: "data/universe.db",

		BroadcastChannelBuffer: 256,
		ClientSendBuffer:       64,

		// SQLite serializes writers; extra idle conns only help concurrent reads.
		DBMaxOpenConns: numCPU * 2,
		DBMaxIdleConns: numCPU,

		BlobCacheSize:    256,
		EventLogCapacity: 500,

		MaxMessagesPerSecond: 20,
	}
}

// StressServer returns aggressive settings for load testing with the agitator.
func StressServer() Server {
	s := DefaultServer()
	s.BroadcastChannelBuffer = 1024
	s.ClientSendBuffer = 256
	s.DBMaxOpenConns = runtime.NumCPU() * 4
	s.DBMaxIdleConns = runtime.NumCPU() * 2
	s.BlobCacheSize = 4096
	s.MaxMessagesPerSecond = 500
	return s
}

// LowResourceServer returns minimal settings for development.
func LowResourceServer() Server {
	s := DefaultServer()
	s.DBPath = "data/universe-dev.db"
	s.BroadcastChannelBuffer = 16
	s.ClientSendBuffer = 8
	s.DBMaxOpenConns = 2
	s.DBMaxIdleConns = 1
	s.BlobCacheSize = 32
	s.EventLogCapacity = 100
	return s
}
