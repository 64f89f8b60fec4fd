package openai

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairJSON(t *testing.T) {
	t.Run("missing opening quote on key", func(t *testing.T) {
		broken := `{"sentiment": "positive", score": 5}`
		repaired := repairJSON(broken)
		assert.True(t, json.Valid([]byte(repaired)), repaired)
	})

	t.Run("valid JSON unchanged", func(t *testing.T) {
		valid := `{"sentiment": "positive", "score": 5}`
		assert.Equal(t, valid, repairJSON(valid))
	})

	t.Run("plain text unchanged", func(t *testing.T) {
		assert.Equal(t, "positive", repairJSON("positive"))
	})
}

func TestIsTransient(t *testing.T) {
	transient := []string{
		"API returned unexpected status code: 429",
		"rate limit exceeded",
		"API returned unexpected status code: 503 Service Unavailable",
		"dial tcp: connection refused",
		"context deadline exceeded (Client.Timeout exceeded)",
	}
	for _, msg := range transient {
		assert.True(t, isTransient(errors.New(msg)), msg)
	}

	permanent := []string{
		"API returned unexpected status code: 401 Unauthorized",
		"model not found",
		"invalid request",
	}
	for _, msg := range permanent {
		assert.False(t, isTransient(errors.New(msg)), msg)
	}
}
