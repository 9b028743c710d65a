package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/modalflow/modalflow/types"
)

// ResponseCache stores serialized responses keyed by a digest of the request
// payload. Two requests with identical model, task and inputs share a key;
// request IDs and timeouts do not affect it.
type ResponseCache struct {
	manager *Manager
	logger  *zap.Logger
}

// NewResponseCache wraps a cache manager.
func NewResponseCache(manager *Manager, logger *zap.Logger) *ResponseCache {
	return &ResponseCache{
		manager: manager,
		logger:  logger.With(zap.String("component", "response_cache")),
	}
}

// Key derives the cache key for a request from its model, task selection,
// parameters and input payloads. Parameters are part of the digest because
// processors read the executed task (and options like target language) from
// them. Maps are digested in sorted order so iteration order cannot split
// identical requests across keys.
func (c *ResponseCache) Key(req *types.Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|", req.ModelID, req.Task, req.FusionMode)

	params := make([]string, 0, len(req.Parameters))
	for k := range req.Parameters {
		params = append(params, k)
	}
	sort.Strings(params)
	for _, k := range params {
		fmt.Fprintf(h, "%s=%v|", k, req.Parameters[k])
	}

	modalities := make([]string, 0, len(req.Inputs))
	for m := range req.Inputs {
		modalities = append(modalities, string(m))
	}
	sort.Strings(modalities)

	for _, m := range modalities {
		fmt.Fprintf(h, "%s:", m)
		for _, in := range req.Inputs[types.Modality(m)] {
			h.Write(in.Data)
			h.Write([]byte{0})
		}
	}
	return "modalflow:response:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for req, or ErrCacheMiss.
func (c *ResponseCache) Get(ctx context.Context, req *types.Request) (*types.Response, error) {
	raw, err := c.manager.Get(ctx, c.Key(req))
	if err != nil {
		return nil, err
	}
	var resp types.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode cached response: %w", err)
	}
	return &resp, nil
}

// Put stores the response for req. Failures are logged, not returned;
// caching never fails a request.
func (c *ResponseCache) Put(ctx context.Context, req *types.Request, resp *types.Response) {
	raw, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("encode response for cache", zap.Error(err))
		return
	}
	if err := c.manager.Set(ctx, c.Key(req), raw); err != nil {
		c.logger.Warn("store response in cache", zap.Error(err))
	}
}

// Close releases the underlying manager.
func (c *ResponseCache) Close() error {
	return c.manager.Close()
}
