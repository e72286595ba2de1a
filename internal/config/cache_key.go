package config

import "fmt"

type CacheKeyStruct struct {
	prefix string
}

func NewCacheKeyStruct(prefix string) *CacheKeyStruct {
	return &CacheKeyStruct{prefix: prefix}
}

// PlanSessionKey returns the cache key holding a session's plan state.
func (r *CacheKeyStruct) PlanSessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s:state", r.prefix, sessionID)
}

// PlanViewChannel returns the Redis PubSub channel carrying a session's views.
func (r *CacheKeyStruct) PlanViewChannel(sessionID string) string {
	return fmt.Sprintf("%s:session:%s:view", r.prefix, sessionID)
}

var CacheKey = NewCacheKeyStruct("studyplan")
