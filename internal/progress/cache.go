package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// KeyValueStorage is the persistence capability behind the local cache.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

const payloadVersion = 1

// GuestUser is the key segment used when no user is signed in.
const GuestUser = "guest"

// CacheKey returns the storage key for a (user, lesson) pair.
func CacheKey(userID, lessonKey string) string {
	if userID == "" {
		userID = GuestUser
	}
	return fmt.Sprintf("progress:%s:%s", userID, lessonKey)
}

type cachePayload struct {
	Version           int                `json:"version"`
	CompletedSections []int              `json:"completedSections"`
	Percent           int                `json:"percent"`
	SavedAt           time.Time          `json:"savedAt"`
	PartialCredit     map[string]float64 `json:"partialCredit,omitempty"`
	TimeSpent         int                `json:"timeSpent"`
	Revision          int64              `json:"revision"`
}

// payloadSchema accepts the legacy {completedSections, percent, savedAt}
// shape as well as the current one.
const payloadSchema = `{
  "type": "object",
  "required": ["completedSections", "percent", "savedAt"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "completedSections": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0}
    },
    "percent": {"type": "integer", "minimum": 0, "maximum": 100},
    "savedAt": {"type": "string"},
    "partialCredit": {
      "type": "object",
      "propertyNames": {"pattern": "^[0-9]+$"},
      "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
    },
    "timeSpent": {"type": "integer", "minimum": 0},
    "revision": {"type": "integer", "minimum": 0}
  }
}`

var compiledPayloadSchema = mustCompilePayloadSchema()

func mustCompilePayloadSchema() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(payloadSchema))
	if err != nil {
		panic(fmt.Sprintf("parse progress payload schema: %v", err))
	}
	c := jsonschema.NewCompiler()
	const url = "schema://progress-payload.json"
	if err := c.AddResource(url, doc); err != nil {
		panic(fmt.Sprintf("add progress payload schema: %v", err))
	}
	sch, err := c.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("compile progress payload schema: %v", err))
	}
	return sch
}

// Cache is the best-effort local progress backup. It never returns errors:
// write failures are logged and dropped, unreadable entries read as absent.
type Cache struct {
	storage KeyValueStorage
	log     zerolog.Logger
	now     func() time.Time
}

// NewCache creates a Cache over storage.
func NewCache(storage KeyValueStorage, log zerolog.Logger) *Cache {
	return &Cache{
		storage: storage,
		log:     log.With().Str("component", "progress-cache").Logger(),
		now:     time.Now,
	}
}

// Save writes st under (userID, lessonKey).
func (c *Cache) Save(ctx context.Context, userID, lessonKey string, st State) {
	key := CacheKey(userID, lessonKey)

	p := cachePayload{
		Version:           payloadVersion,
		CompletedSections: st.CompletedIDs(),
		Percent:           st.Percent,
		SavedAt:           c.now().UTC(),
		TimeSpent:         st.TimeSpent,
		Revision:          st.Revision,
	}
	if len(st.Partial) > 0 {
		p.PartialCredit = make(map[string]float64, len(st.Partial))
		for id, f := range st.Partial {
			p.PartialCredit[strconv.Itoa(id)] = f
		}
	}

	raw, err := json.Marshal(p)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("encode progress payload")
		return
	}
	if err := c.storage.Set(ctx, key, raw); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Load returns the cached state for (userID, lessonKey), or false when the
// entry is absent or corrupt.
func (c *Cache) Load(ctx context.Context, userID, lessonKey string) (*State, bool) {
	key := CacheKey(userID, lessonKey)

	raw, ok, err := c.storage.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	st, err := decodePayload(raw)
	if err != nil {
		c.log.Debug().Err(err).Str("key", key).Msg("ignoring corrupt cache entry")
		return nil, false
	}
	return st, true
}

func decodePayload(raw []byte) (*State, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := compiledPayloadSchema.Validate(inst); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	var p cachePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	st := NewState()
	for _, id := range p.CompletedSections {
		st.Completed[id] = true
	}
	for k, f := range p.PartialCredit {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("partial credit key %q: %w", k, err)
		}
		st.Partial[id] = f
	}
	st.Percent = p.Percent
	st.TimeSpent = p.TimeSpent
	st.Revision = p.Revision
	return st, nil
}
