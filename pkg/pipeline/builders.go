package pipeline

// RehostPipelineBuilder builds the image rehost pipeline
// Pipeline: entry → [Resolver] → [Publisher] → checkpointed output
func RehostPipelineBuilder(res ImageResolver, pub Publisher, cfg Config) *Pipeline {
	return NewPipeline(NewImageProcessor(res, pub), cfg)
}
