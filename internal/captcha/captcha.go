package captcha

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ChallengeTTL bounds how long a form may sit open before its captcha expires.
const ChallengeTTL = 10 * time.Minute

// Challenge is an arithmetic question the form renders next to the submit
// button. The expected answer never leaves the server.
type Challenge struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// Verifier is what booking creation consults.
type Verifier interface {
	Verify(ctx context.Context, id, answer string) (bool, error)
}

// Store holds pending challenge answers. Take removes the answer so every
// challenge verifies at most once.
type Store interface {
	Save(ctx context.Context, id, answer string, ttl time.Duration) error
	Take(ctx context.Context, id string) (string, bool, error)
}

type Service struct {
	store Store
	ttl   time.Duration
}

func NewService(store Store) *Service {
	return &Service{store: store, ttl: ChallengeTTL}
}

// Issue creates a new challenge and stores its answer with a TTL.
func (s *Service) Issue(ctx context.Context) (Challenge, error) {
	a := rand.Intn(9) + 1
	b := rand.Intn(9) + 1
	ch := Challenge{
		ID:       uuid.NewString(),
		Question: fmt.Sprintf("Combien font %d + %d ?", a, b),
	}
	if err := s.store.Save(ctx, ch.ID, strconv.Itoa(a+b), s.ttl); err != nil {
		return Challenge{}, err
	}
	return ch, nil
}

// Verify consumes the challenge. A missing, expired or already-used id
// verifies false, as does a wrong answer.
func (s *Service) Verify(ctx context.Context, id, answer string) (bool, error) {
	if id == "" {
		return false, nil
	}
	want, ok, err := s.store.Take(ctx, id)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return strings.TrimSpace(answer) == want, nil
}

// RedisStore keeps challenges in redis so restarts and multiple instances
// share them.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func key(id string) string {
	return "captcha:" + id
}

func (s *RedisStore) Save(ctx context.Context, id, answer string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key(id), answer, ttl).Err()
}

func (s *RedisStore) Take(ctx context.Context, id string) (string, bool, error) {
	v, err := s.rdb.GetDel(ctx, key(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}
