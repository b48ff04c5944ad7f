// Copyright 2026 Scopeworks
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package redis provides a Redis-backed queue driver so that scanning and
// vectorization workers can run in separate processes.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/scopeworks/kbpipeline/queue"
)

const (
	// DefaultKey is the Redis list key holding queued document paths.
	DefaultKey = "kbpipeline:vectorize"

	// popTimeout bounds each blocking pop so context cancellation is
	// observed promptly.
	popTimeout = time.Second
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string // host:port
	Password string
	DB       int
	Key      string // List key; DefaultKey when empty
}

// Queue is a Redis list used as a FIFO work queue.
type Queue struct {
	client *goredis.Client
	key    string
}

var _ queue.Queue = (*Queue)(nil)

// New creates a Redis-backed queue and verifies connectivity.
func New(ctx context.Context, cfg Config) (*Queue, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}

	return &Queue{client: client, key: key}, nil
}

// Enqueue appends a document path to the queue.
func (q *Queue) Enqueue(ctx context.Context, path string) error {
	return q.client.LPush(ctx, q.key, path).Err()
}

// Dequeue blocks until a path is available or the context is done.
func (q *Queue) Dequeue(ctx context.Context) (string, error) {
	for {
		res, err := q.client.BRPop(ctx, popTimeout, q.key).Result()
		if err == nil {
			// BRPOP returns [key, value].
			return res[1], nil
		}
		if !errors.Is(err, goredis.Nil) {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
	}
}

// Close closes the underlying Redis client.
func (q *Queue) Close() error {
	return q.client.Close()
}
