package constants

import "time"

// Redis cache keys and TTLs.
// Pattern: tickethub:{module}:{operation}:{identifier}

const (
	CACHE_PREFIX = "tickethub"
)

// ================== CATALOG MODULE ==================

const (
	CACHE_KEY_EVENT_DETAIL = CACHE_PREFIX + ":events:detail:uuid:" // + event-id
	CACHE_KEY_SEAT_MAP     = CACHE_PREFIX + ":events:seatmap:uuid:" // + event-id
)

// Event data is stable; the seat map embeds live hold/ticket state so
// its TTL stays short.
const (
	TTL_EVENT_DETAIL = 2 * time.Hour
	TTL_SEAT_MAP     = 5 * time.Second
)

// ================== INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_EVENT_ALL = CACHE_PREFIX + ":events:*"
)

// ================== HELPER FUNCTIONS ==================

func BuildEventDetailKey(eventID string) string {
	return CACHE_KEY_EVENT_DETAIL + eventID
}

func BuildSeatMapKey(eventID string) string {
	return CACHE_KEY_SEAT_MAP + eventID
}
