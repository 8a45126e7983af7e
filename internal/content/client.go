package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"recitation-service/internal/models"
)

// ErrContentUnavailable covers every way a page fetch can fail; the
// caller surfaces it and lets the learner retry.
var ErrContentUnavailable = errors.New("page content unavailable")

// Client fetches a page's verses from the content provider, with a
// redis read-through cache in front. The cache is optional and
// best-effort: any cache failure falls through to the origin.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *redis.Client
	ttl     time.Duration
}

func NewClient(baseURL string, cache *redis.Client, ttl time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		cache:   cache,
		ttl:     ttl,
	}
}

// PageVerses returns the ordered verses of a page.
func (c *Client) PageVerses(ctx context.Context, pageID string) ([]models.Verse, error) {
	cacheKey := "page:" + pageID

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var verses []models.Verse
			if err := json.Unmarshal(cached, &verses); err == nil {
				return verses, nil
			}
		} else if err != redis.Nil {
			log.Printf("page cache read failed for %s: %v", pageID, err)
		}
	}

	verses, err := c.fetchPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if body, err := json.Marshal(verses); err == nil {
			if err := c.cache.Set(ctx, cacheKey, body, c.ttl).Err(); err != nil {
				log.Printf("page cache write failed for %s: %v", pageID, err)
			}
		}
	}
	return verses, nil
}

func (c *Client) fetchPage(ctx context.Context, pageID string) ([]models.Verse, error) {
	url := fmt.Sprintf("%s/page/%s", c.baseURL, pageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for page %s", ErrContentUnavailable, resp.StatusCode, pageID)
	}

	var verses []models.Verse
	if err := json.NewDecoder(resp.Body).Decode(&verses); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentUnavailable, err)
	}
	return verses, nil
}
