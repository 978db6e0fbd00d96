package utils

import (
	"context"
	"time"
)

const (
	// StoreTimeout bounds result store operations
	StoreTimeout = 10 * time.Second

	// InferenceTimeout bounds a single model inference stage (parsing or
	// summarization) so a slow model cannot pin a request forever
	InferenceTimeout = 60 * time.Second
)

// WithStoreTimeout creates a context bounded for a store operation
func WithStoreTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, StoreTimeout)
}

// WithInferenceTimeout creates a context bounded for a model inference call
func WithInferenceTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, InferenceTimeout)
}
