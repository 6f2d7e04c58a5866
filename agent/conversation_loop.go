package agent

import (
	"go.uber.org/zap"
)

// ConversationLoop enforces the agent's generation budget and tracks
// consecutive unparseable generations.
type ConversationLoop struct {
	maxIterations     int
	consecutiveErrors int
	logger            *zap.Logger
}

// NewConversationLoop creates a loop allowing at most maxIterations generations.
func NewConversationLoop(maxIterations int, logger *zap.Logger) *ConversationLoop {
	if maxIterations <= 0 {
		maxIterations = 1
	}
	return &ConversationLoop{
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// ShouldContinue checks if another generation fits the budget.
// Returns (shouldContinue, reason). If shouldContinue is false, reason contains the break message.
func (c *ConversationLoop) ShouldContinue(turn int) (bool, string) {
	if turn >= c.maxIterations {
		c.logger.Info("Agent stopped due to iteration limit",
			zap.Int("max_iterations", c.maxIterations),
			zap.Int("consecutive_errors", c.consecutiveErrors))
		return false, "Agent stopped due to iteration limit."
	}
	return true, ""
}

// RecordError increments the consecutive error counter and logs it.
func (c *ConversationLoop) RecordError() {
	c.consecutiveErrors++
	c.logger.Debug("Recorded unparseable generation",
		zap.Int("consecutive_errors", c.consecutiveErrors))
}

// RecordSuccess resets the consecutive error counter.
func (c *ConversationLoop) RecordSuccess() {
	c.consecutiveErrors = 0
}

// GetConsecutiveErrors returns the current consecutive error count.
func (c *ConversationLoop) GetConsecutiveErrors() int {
	return c.consecutiveErrors
}
