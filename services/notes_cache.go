package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"skilltracker/model"

	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
)

const (
	notesListKey = "notes:list"
	notesGenKey  = "notes:list:gen"
)

// ErrCacheMiss is returned by Get when no listing is cached.
const ErrCacheMiss = errors.ConstError("cache miss")

// NotesListCache keeps the unpaged note listing in redis. Listings are
// stored under a key suffixed with the current generation; Invalidate bumps
// the generation, so a listing read before a write and cached after it lands
// under a key nobody reads again.
type NotesListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNotesListCache connects to redisURL and checks the connection.
func NewNotesListCache(ctx context.Context, redisURL string, ttl time.Duration) (*NotesListCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Annotate(err, "parsing Redis URL")
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Annotate(err, "connecting to Redis")
	}

	return &NotesListCache{client: client, ttl: ttl}, nil
}

func listKey(gen int64) string {
	return notesListKey + ":" + strconv.FormatInt(gen, 10)
}

func (c *NotesListCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, notesGenKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Annotate(err, "reading notes cache generation")
	}
	return gen, nil
}

// Get returns the listing cached for the current generation. On a miss it
// returns ErrCacheMiss along with the generation a following Set must carry.
func (c *NotesListCache) Get(ctx context.Context) ([]*model.Note, int64, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, err
	}

	data, err := c.client.Get(ctx, listKey(gen)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, gen, ErrCacheMiss
		}
		return nil, 0, errors.Annotate(err, "reading cached notes")
	}

	var notes []*model.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, 0, errors.Annotate(err, "decoding cached notes")
	}
	return notes, gen, nil
}

// Set caches notes under gen. A listing for a generation that has since been
// invalidated is never served.
func (c *NotesListCache) Set(ctx context.Context, gen int64, notes []*model.Note) error {
	data, err := json.Marshal(notes)
	if err != nil {
		return errors.Annotate(err, "encoding notes")
	}
	if err := c.client.Set(ctx, listKey(gen), data, c.ttl).Err(); err != nil {
		return errors.Annotate(err, "caching notes")
	}
	return nil
}

func (c *NotesListCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, notesGenKey).Err(); err != nil {
		return errors.Annotate(err, "invalidating notes cache")
	}
	return nil
}

func (c *NotesListCache) Close() error {
	return c.client.Close()
}
