package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ayush/research-content-generator/internal/chatbot"
	"github.com/ayush/research-content-generator/internal/models"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisStore keeps UI session state in Redis as JSON values. Reads and
// writes push the expiry of the touched keys out by the TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func documentKey(sid string) string  { return "ui:" + sid + ":document" }
func chatKey(sid, id string) string  { return "ui:" + sid + ":chat:" + id }
func chatIndexKey(sid string) string { return "ui:" + sid + ":chats" }

func (s *RedisStore) Document(ctx context.Context, sid string) (*models.Document, error) {
	var doc models.Document
	found, err := s.getJSON(ctx, documentKey(sid), &doc)
	if err != nil || !found {
		return nil, err
	}
	return &doc, nil
}

func (s *RedisStore) SetDocument(ctx context.Context, sid string, doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return s.rdb.Set(ctx, documentKey(sid), data, s.ttl).Err()
}

func (s *RedisStore) ClearDocument(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, documentKey(sid)).Err()
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	ids, err := s.rdb.SMembers(ctx, chatIndexKey(sid)).Result()
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	keys := []string{documentKey(sid), chatIndexKey(sid)}
	for _, id := range ids {
		keys = append(keys, chatKey(sid, id))
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *RedisStore) Chats(sid string) chatbot.Store {
	return &redisChats{s: s, sid: sid}
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := s.rdb.GetEx(ctx, key, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

type redisChats struct {
	s   *RedisStore
	sid string
}

func (c *redisChats) Get(ctx context.Context, id string) (*models.ChatSession, error) {
	var sess models.ChatSession
	found, err := c.s.getJSON(ctx, chatKey(c.sid, id), &sess)
	if err != nil || !found {
		return nil, err
	}
	return &sess, nil
}

func (c *redisChats) Save(ctx context.Context, sess *models.ChatSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode chat session: %w", err)
	}
	index := chatIndexKey(c.sid)
	_, err = c.s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, chatKey(c.sid, sess.ID), data, c.s.ttl)
		pipe.SAdd(ctx, index, sess.ID)
		pipe.Expire(ctx, index, c.s.ttl)
		return nil
	})
	return err
}

func (c *redisChats) Delete(ctx context.Context, id string) error {
	_, err := c.s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, chatKey(c.sid, id))
		pipe.SRem(ctx, chatIndexKey(c.sid), id)
		return nil
	})
	return err
}

func (c *redisChats) List(ctx context.Context) ([]string, error) {
	index := chatIndexKey(c.sid)
	ids, err := c.s.rdb.SMembers(ctx, index).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		if err := c.s.rdb.Expire(ctx, index, c.s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("refresh %s: %w", index, err)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
