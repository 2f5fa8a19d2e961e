package config

import "time"

const (
	// Pagination
	DefaultPageSize = 10
	MinPageSize     = 1
	MaxPageSize     = 50

	// Voice attachment resolution
	AttachmentMaxAttempts = 5
	AttachmentRetryDelay  = 2 * time.Second
	AttachmentHTTPTimeout = 5 * time.Second

	// Read-time resolution inside a list query
	ReadResolveTimeout     = 1500 * time.Millisecond
	ReadResolveConcurrency = 8

	// Events
	EventsChannel           = "dm:events"
	DeliveryDedupePrefix    = "dm:delivered:"
	DeliveryDedupeTTL       = 10 * time.Minute
	EventQueueSize          = 1024
	MaxConcurrentDeliveries = 256
	PublishTimeout          = 3 * time.Second

	// WebSocket
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 8 << 10
	SendBufferSize = 256

	// Upstream HTTP
	UpstreamTimeout = 5 * time.Second

	// Rooms
	RoomPrefix = "chat_"
)
