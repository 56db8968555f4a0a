package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplPMap Implementation = "pmap"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureSet    Feature = 1 << iota // Support for Set operations
	FeatureGet                        // Support for Get operations
	FeatureDelete                     // Support for Delete operations
	FeatureKeys                       // Support for key iteration
	FeatureTTL                        // Support for SetTTL, ClearTTL and ExpireDue
)

func (f Feature) String() string {
	switch f {
	case FeatureSet:
		return "Set"
	case FeatureGet:
		return "Get"
	case FeatureDelete:
		return "Delete"
	case FeatureKeys:
		return "Keys"
	case FeatureTTL:
		return "TTL"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	Keys              int            `json:"keys"`
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for single-threaded key-value database implementations.
// Timestamps are absolute milliseconds of a monotonic clock owned by the caller,
// the database never reads a clock itself.
// Implementations are not safe for concurrent use.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates an entry. An existing entry keeps its expiration.
	Set(key string, value []byte)

	// Delete removes an entry and its expiration.
	// It reports whether the key was present.
	Delete(key string) (deleted bool)

	// SetTTL sets the absolute expiration time of an existing entry and returns its value.
	// loaded is false (and nothing is changed) if the key does not exist.
	SetTTL(key string, expireAt uint64) (value []byte, loaded bool)

	// ClearTTL removes the expiration of an existing entry and returns its value.
	ClearTTL(key string) (value []byte, loaded bool)

	// ExpireDue removes at most max entries whose expiration is <= now,
	// earliest first, and returns the number removed.
	ExpireDue(now uint64, max int) (removed int)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key.
	// The returned slice is owned by the database and only valid until the next write.
	Get(key string) (value []byte, loaded bool)

	// Keys calls fn for every key until fn returns false.
	// fn must not modify the database.
	Keys(fn func(key string) bool)

	// Len returns the number of live entries.
	Len() int

	// NextExpiry returns the earliest expiration time, if any entry has one.
	NextExpiry() (expireAt uint64, ok bool)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close releases all entries.
	Close() (err error)
}
