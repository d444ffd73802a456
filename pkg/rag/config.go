package rag

import (
	"fmt"
	"time"

	"ai-docsearch-be/pkg/llm"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds the per-invocation pipeline settings.
type Config struct {
	TopK                  int           `yaml:"topK" json:"topK" validate:"min=1,max=100"`
	MaxIterations         int           `yaml:"maxIterations" json:"maxIterations" validate:"min=0,max=10"`
	EnableQueryRefinement bool          `yaml:"enableQueryRefinement" json:"enableQueryRefinement"`
	ModelName             string        `yaml:"modelName" json:"modelName" validate:"required"`
	Temperature           float64       `yaml:"temperature" json:"temperature" validate:"min=0,max=2"`
	AnalysisFallback      bool          `yaml:"analysisFallback" json:"analysisFallback"`
	ChunkFallback         bool          `yaml:"chunkFallback" json:"chunkFallback"`
	StageTimeout          time.Duration `yaml:"stageTimeout" json:"stageTimeout" validate:"min=0"`
}

func DefaultConfig() Config {
	return Config{
		TopK:                  3,
		MaxIterations:         2,
		EnableQueryRefinement: false,
		ModelName:             "gpt-4o-mini",
		Temperature:           0,
		StageTimeout:          60 * time.Second,
	}
}

// Validate reports invalid settings as ErrConfiguration.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return nil
}

// LLMOptions are the generation parameters every stage passes to the model.
func (c Config) LLMOptions() []llm.Option {
	return []llm.Option{llm.WithModel(c.ModelName), llm.WithTemperature(c.Temperature)}
}

// Overrides carries caller-supplied settings; nil fields keep the default.
type Overrides struct {
	TopK                  *int     `json:"topK,omitempty"`
	MaxIterations         *int     `json:"maxIterations,omitempty"`
	EnableQueryRefinement *bool    `json:"enableQueryRefinement,omitempty"`
	ModelName             *string  `json:"modelName,omitempty"`
	Temperature           *float64 `json:"temperature,omitempty"`
}

func (c Config) WithOverrides(o Overrides) Config {
	if o.TopK != nil {
		c.TopK = *o.TopK
	}
	if o.MaxIterations != nil {
		c.MaxIterations = *o.MaxIterations
	}
	if o.EnableQueryRefinement != nil {
		c.EnableQueryRefinement = *o.EnableQueryRefinement
	}
	if o.ModelName != nil {
		c.ModelName = *o.ModelName
	}
	if o.Temperature != nil {
		c.Temperature = *o.Temperature
	}
	return c
}
