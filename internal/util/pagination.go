package util

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Clamp normalizes raw limit/offset query values into something safe to hand
// to the database.
func Clamp(limit, offset int) (int, int) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
