package metadata

import (
	"fmt"
	"time"
)

/*
queryStats
  - Terminal, derived summary of a completed query
  - Contains only aggregate counts and durations
  - Recorded exactly once per query, after it finishes
  - Must not influence control flow
*/
type queryStats struct {
	queryID    string
	periods    int
	records    int
	liveFetch  int
	cacheHits  int
	durationMs int64
}

/*
ErrorCause is a closed, canonical classification used exclusively for
observability (logging, reporting).

Rules:
  - ErrorCause MUST NOT influence control flow.
  - ErrorCause MUST NOT be used for retry, continuation, or abort decisions.
  - Packages MAY map their local errors to ErrorCause, but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown
  - The failure does not map cleanly to any known category.

# CauseNetworkFailure
  - Transport failures, timeouts, non-2xx answers from the origin.

# CausePolicyDisallow
  - The origin refused service (403, 429).

# CauseContentInvalid
  - Content was fetched but the expected page structure is missing.

# CauseStorageFailure
  - Cache file or database could not be read or written.

# CauseLookupFailure
  - User input did not match any known state, city or info type.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseContentInvalid
	CauseStorageFailure
	CauseLookupFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CausePolicyDisallow:
		return "policy_disallow"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseStorageFailure:
		return "storage_failure"
	case CauseLookupFailure:
		return "lookup_failure"
	default:
		return "unknown"
	}
}

type ArtifactKind string

const (
	ArtifactCacheFile ArtifactKind = "cache_file"
	ArtifactDatabase  ArtifactKind = "database"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

func NewIntAttr(key AttributeKey, val int) Attribute {
	return Attribute{
		Key:   key,
		Value: fmt.Sprintf("%d", val),
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrOrigin     AttributeKey = "origin"
	AttrPath       AttributeKey = "path"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrQueryID    AttributeKey = "query_id"
	AttrState      AttributeKey = "state"
	AttrCity       AttributeKey = "city"
	AttrTable      AttributeKey = "table"
	AttrRows       AttributeKey = "rows"
	AttrWritePath  AttributeKey = "write_path"
	AttrMessage    AttributeKey = "message"
)

func flattenAttrs(attrs []Attribute) []interface{} {
	keyvals := make([]interface{}, 0, len(attrs)*2)
	for _, attr := range attrs {
		keyvals = append(keyvals, string(attr.Key), attr.Value)
	}
	return keyvals
}

// helper so callers can pass a zero time and still get a timestamp
func observedOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
