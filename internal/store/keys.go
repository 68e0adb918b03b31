package store

// Cache key layout. The entity identifier is always the suffix so that all
// keys for one entity can be invalidated together.

const (
	profileKeyPrefix = "researcher_profile:"
	statsKeyPrefix   = "researcher_stats:"
)

// ProfileKey is the cache key for a researcher's full profile body.
func ProfileKey(researcherID string) string {
	return profileKeyPrefix + researcherID
}

// StatsKey is the cache key for a researcher's fast-access statistics hash.
func StatsKey(researcherID string) string {
	return statsKeyPrefix + researcherID
}

// IsLegacyHexID reports whether id looks like a legacy 24-character
// hexadecimal object id rather than a natively generated string id.
func IsLegacyHexID(id string) bool {
	if len(id) != 24 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
