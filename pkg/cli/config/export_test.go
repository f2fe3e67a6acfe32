package config

// NewPipelineForTest creates a Pipeline config for testing purposes
func NewPipelineForTest(threshold, chunkSize, megaTarget, maxDepth, insightsMax int) *Pipeline {
	return &Pipeline{
		maxTokensBeforeSummarization: threshold,
		chunkSize:                    chunkSize,
		megaSummaryTarget:            megaTarget,
		maxDepth:                     maxDepth,
		insightsMaxTokens:            insightsMax,
	}
}

// NewStorageForTest creates a Storage config for testing purposes
func NewStorageForTest(backend string) *Storage {
	return &Storage{backend: backend}
}
