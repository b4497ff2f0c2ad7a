package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CermatSessionKey returns the Redis key holding a transient drill round.
func (r *CacheKeyStruct) CermatSessionKey(sessionID string) string {
	return fmt.Sprintf("cermat:session:%s", sessionID)
}

// ViolationMonitorChannel returns the Redis Pub/Sub channel carrying live
// violation events to the admin monitor stream.
func (r *CacheKeyStruct) ViolationMonitorChannel() string {
	return "violations:monitor"
}

var CacheKey = NewCacheKeyStruct()
