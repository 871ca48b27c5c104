package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CompletionServiceConfig tunes caching and circuit breaking around the LLM client
type CompletionServiceConfig struct {
	CacheEnabled       bool
	CacheTTL           time.Duration
	BreakerEnabled     bool
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// CompletionService is the core service every field prompt goes through
type CompletionService struct {
	llmClient    LLMClient
	cache        CacheRepository
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	breaker      *gobreaker.CircuitBreaker
}

// NewCompletionService creates a new completion service. cache may be nil
// when caching is disabled.
func NewCompletionService(
	llmClient LLMClient,
	cache CacheRepository,
	logger *zap.Logger,
	cfg CompletionServiceConfig,
) *CompletionService {
	s := &CompletionService{
		llmClient:    llmClient,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cfg.CacheEnabled && cache != nil,
		cacheTTL:     cfg.CacheTTL,
	}

	if cfg.BreakerEnabled {
		maxFailures := cfg.BreakerMaxFailures
		if maxFailures == 0 {
			maxFailures = 5
		}
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "llm-" + llmClient.ModelName(),
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("Completion circuit breaker changed state",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		})
	}

	return s
}

// Complete returns the completion for req, consulting the cache first
func (s *CompletionService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	key := s.cacheKey(req)

	if s.cacheEnabled {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			s.logger.Debug("Cache hit for prompt", zap.String("key", key[:12]))
			return entry.Text, nil
		}
	}

	text, err := s.call(ctx, req)
	if err != nil {
		return "", err
	}

	if s.cacheEnabled {
		now := time.Now()
		entry := &CacheEntry{
			Key:       key,
			Text:      text,
			Model:     s.llmClient.ModelName(),
			CreatedAt: now,
			ExpiresAt: now.Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return text, nil
}

func (s *CompletionService) call(ctx context.Context, req CompletionRequest) (string, error) {
	if s.breaker == nil {
		return s.llmClient.Complete(ctx, req)
	}

	out, err := s.breaker.Execute(func() (interface{}, error) {
		return s.llmClient.Complete(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("completion backend unavailable: %w", err)
		}
		return "", err
	}
	return out.(string), nil
}

func (s *CompletionService) cacheKey(req CompletionRequest) string {
	h := sha256.New()
	h.Write([]byte(s.llmClient.ModelName()))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(req.MaxTokens)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(float64(req.Temperature), 'f', -1, 32)))
	h.Write([]byte{0})
	h.Write([]byte(req.Prompt))
	return hex.EncodeToString(h.Sum(nil))
}
