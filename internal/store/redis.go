package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"storagevoice/pkg"
)

const (
	boxKeyPrefix  = "inv:box:"
	itemKeyPrefix = "inv:item:"
	boxIDSet      = "inv:boxes"
	itemIDSet     = "inv:items"
)

// Redis persists records as JSON blobs under prefixed keys, with two id
// sets for enumeration. All writes are single-key plus set membership.
type Redis struct {
	client *redis.Client
}

// NewRedis connects and verifies the server is reachable before returning.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) ListBoxes(ctx context.Context) ([]pkg.Box, error) {
	ids, err := r.client.SMembers(ctx, boxIDSet).Result()
	if err != nil {
		return nil, fmt.Errorf("list box ids: %w", err)
	}
	out := make([]pkg.Box, 0, len(ids))
	for _, id := range ids {
		raw, err := r.client.Get(ctx, boxKeyPrefix+id).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get box %s: %w", id, err)
		}
		var b pkg.Box
		if err := sonic.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("decode box %s: %w", id, err)
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *Redis) CreateBox(ctx context.Context, name string) (*pkg.Box, error) {
	b := pkg.Box{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := r.putBox(ctx, b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Redis) putBox(ctx context.Context, b pkg.Box) error {
	raw, err := sonic.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode box: %w", err)
	}
	if err := r.client.Set(ctx, boxKeyPrefix+b.ID, raw, 0).Err(); err != nil {
		return fmt.Errorf("set box %s: %w", b.ID, err)
	}
	if err := r.client.SAdd(ctx, boxIDSet, b.ID).Err(); err != nil {
		return fmt.Errorf("index box %s: %w", b.ID, err)
	}
	return nil
}

func (r *Redis) DeleteBox(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Del(ctx, boxKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("delete box %s: %w", id, err)
	}
	if err := r.client.SRem(ctx, boxIDSet, id).Err(); err != nil {
		return false, fmt.Errorf("deindex box %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *Redis) ListItems(ctx context.Context) ([]pkg.Item, error) {
	ids, err := r.client.SMembers(ctx, itemIDSet).Result()
	if err != nil {
		return nil, fmt.Errorf("list item ids: %w", err)
	}
	out := make([]pkg.Item, 0, len(ids))
	for _, id := range ids {
		it, err := r.getItem(ctx, id)
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, nil
}

func (r *Redis) getItem(ctx context.Context, id string) (*pkg.Item, error) {
	raw, err := r.client.Get(ctx, itemKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, redis.Nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	var it pkg.Item
	if err := sonic.Unmarshal(raw, &it); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", id, err)
	}
	return &it, nil
}

func (r *Redis) putItem(ctx context.Context, it pkg.Item) error {
	raw, err := sonic.Marshal(it)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}
	if err := r.client.Set(ctx, itemKeyPrefix+it.ID, raw, 0).Err(); err != nil {
		return fmt.Errorf("set item %s: %w", it.ID, err)
	}
	if err := r.client.SAdd(ctx, itemIDSet, it.ID).Err(); err != nil {
		return fmt.Errorf("index item %s: %w", it.ID, err)
	}
	return nil
}

func (r *Redis) AddItem(ctx context.Context, name, canonical string, quantity int, boxID string) (*pkg.Item, error) {
	it := pkg.Item{
		ID:            uuid.NewString(),
		Name:          name,
		CanonicalName: canonical,
		Quantity:      quantity,
		BoxID:         boxID,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := r.putItem(ctx, it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Redis) UpdateItemQuantity(ctx context.Context, id string, quantity int) (*pkg.Item, error) {
	it, err := r.getItem(ctx, id)
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		if _, err := r.DeleteItem(ctx, id); err != nil {
			return nil, err
		}
		it.Quantity = 0
		return it, nil
	}
	it.Quantity = quantity
	if err := r.putItem(ctx, *it); err != nil {
		return nil, err
	}
	return it, nil
}

func (r *Redis) MoveItemToBox(ctx context.Context, id, boxID string) (*pkg.Item, error) {
	it, err := r.getItem(ctx, id)
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	it.BoxID = boxID
	if err := r.putItem(ctx, *it); err != nil {
		return nil, err
	}
	return it, nil
}

func (r *Redis) DeleteItem(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Del(ctx, itemKeyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("delete item %s: %w", id, err)
	}
	if err := r.client.SRem(ctx, itemIDSet, id).Err(); err != nil {
		return false, fmt.Errorf("deindex item %s: %w", id, err)
	}
	return n > 0, nil
}
