package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/usecase"
)

var _ usecase.StatusCache = (*StatusCache)(nil)

// StatusCache keeps the latest job record in Redis so status polling does not
// hit the durable store on every request.
type StatusCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewStatusCache(client RedisClient, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &StatusCache{client: client, ttl: ttl}
}

func statusKey(jobID string) string {
	return fmt.Sprintf("job_status:%s", jobID)
}

func (c *StatusCache) Put(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKey(job.ID), data, c.ttl)
}

func (c *StatusCache) Get(ctx context.Context, id string) (*model.Job, error) {
	data, err := c.client.Get(ctx, statusKey(id))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}
