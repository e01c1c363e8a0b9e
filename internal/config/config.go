package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Qdrant      QdrantConfig     `json:"qdrant"`
	AI          AIConfig         `json:"ai"`
	Parser      ParserConfig     `json:"parser"`
	Ingest      IngestConfig     `json:"ingest"`
	Retrieval   RetrievalConfig  `json:"retrieval"`
	Matcher     MatcherConfig    `json:"matcher"`
	Media       MediaConfig      `json:"media"`
	Tickets     TicketsConfig    `json:"tickets"`
	Reseed      ReseedConfig     `json:"reseed"`
}

type QdrantConfig struct {
	URL         string `json:"url"`
	APIKey      string `json:"api_key"`
	Collection  string `json:"collection"`
	VectorDim   int    `json:"vector_dim"`
	TimeoutSecs int    `json:"timeout_secs"`
}

type AIConfig struct {
	Provider           string      `json:"provider"`
	Data               interface{} `json:"data"`
	Model              string      `json:"model"`
	EmbedProvider      string      `json:"embed_provider"`
	EmbedData          interface{} `json:"embed_data"`
	EmbedModel         string      `json:"embed_model"`
	TimeoutSecs        int         `json:"timeout_secs"`
	SuggestTimeoutSecs int         `json:"suggest_timeout_secs"`
}

type ParserConfig struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
	// MinImageArea is the pixel-area floor below which an image is
	// treated as a decorative icon and dropped at extraction time.
	// Tuned against the observed document set, not derived.
	MinImageArea int `json:"min_image_area"`
}

type IngestConfig struct {
	BatchSize int `json:"batch_size"`
}

type RetrievalConfig struct {
	TopK              int `json:"top_k"`
	SearchTimeoutSecs int `json:"search_timeout_secs"`
	EmbedCacheSize    int `json:"embed_cache_size"`
}

type MatcherConfig struct {
	// ScoreThreshold is the minimum adjusted match score for binding an
	// image to a step. Tuned low to favour recall.
	ScoreThreshold float64  `json:"score_threshold"`
	MaxImages      int      `json:"max_images"`
	Keywords       []string `json:"keywords"`
}

type MediaConfig struct {
	SamplesDir   string `json:"samples_dir"`
	ExtractedDir string `json:"extracted_dir"`
}

type TicketsConfig struct {
	Path string `json:"path"`
}

type ReseedConfig struct {
	Enable bool   `json:"enable"`
	Spec   string `json:"spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Qdrant.URL == "" {
		return nil, fmt.Errorf("qdrant.url is required")
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "kb_documents"
	}
	if cfg.Qdrant.VectorDim == 0 {
		cfg.Qdrant.VectorDim = 1536
	}
	if cfg.Qdrant.TimeoutSecs == 0 {
		cfg.Qdrant.TimeoutSecs = 15
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.EmbedProvider == "" {
		cfg.AI.EmbedProvider = cfg.AI.Provider
	}
	if cfg.AI.EmbedData == nil {
		cfg.AI.EmbedData = cfg.AI.Data
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.TimeoutSecs == 0 {
		cfg.AI.TimeoutSecs = 120
	}
	if cfg.AI.SuggestTimeoutSecs == 0 {
		cfg.AI.SuggestTimeoutSecs = 15
	}
	if cfg.Parser.ChunkSize == 0 {
		cfg.Parser.ChunkSize = 1000
	}
	if cfg.Parser.ChunkOverlap == 0 {
		cfg.Parser.ChunkOverlap = 200
	}
	if cfg.Parser.ChunkOverlap >= cfg.Parser.ChunkSize {
		return nil, fmt.Errorf("parser.chunk_overlap must be smaller than parser.chunk_size")
	}
	if cfg.Parser.MinImageArea == 0 {
		cfg.Parser.MinImageArea = 400
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 32
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.SearchTimeoutSecs == 0 {
		cfg.Retrieval.SearchTimeoutSecs = 3
	}
	if cfg.Retrieval.EmbedCacheSize == 0 {
		cfg.Retrieval.EmbedCacheSize = 2048
	}
	if cfg.Matcher.ScoreThreshold == 0 {
		cfg.Matcher.ScoreThreshold = 0.3
	}
	if cfg.Matcher.MaxImages == 0 {
		cfg.Matcher.MaxImages = 5
	}
	if cfg.Media.SamplesDir == "" {
		return nil, fmt.Errorf("media.samples_dir is required")
	}
	if cfg.Media.ExtractedDir == "" {
		return nil, fmt.Errorf("media.extracted_dir is required")
	}
	if cfg.Tickets.Path == "" {
		cfg.Tickets.Path = "tickets.json"
	}
	if cfg.Reseed.Enable && cfg.Reseed.Spec == "" {
		cfg.Reseed.Spec = "0 4 * * *"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
