package cache

import "time"

// Key inventory. Every cached value lives under one of these keys.
const (
	TagsKey         = "tags:all"
	UserKeyPrefix   = "user:"
	RateLimitPrefix = "rl:"
	BlacklistPrefix = "blacklist:"
)

const (
	TagsTTL = 5 * time.Minute
	UserTTL = 5 * time.Minute
)

func UserKey(username string) string {
	return UserKeyPrefix + username
}
