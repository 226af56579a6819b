package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/parcdesk/parcbot/internal/ai"
	"github.com/parcdesk/parcbot/internal/cache"
	"github.com/parcdesk/parcbot/internal/handlers"
	"github.com/parcdesk/parcbot/internal/intent"
	"github.com/parcdesk/parcbot/internal/pipeline"
	"github.com/parcdesk/parcbot/internal/semantic"
	"github.com/parcdesk/parcbot/internal/store"
)

func dbPath() (string, error) {
	if path := viper.GetString("db.path"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".parcbot.db"), nil
}

func resolveGeminiAPIKey() string {
	if key := viper.GetString("ai.api_key"); key != "" {
		return key
	}
	return os.Getenv("GEMINI_API_KEY")
}

// newPipeline wires the whole stack from config. The returned cleanup closes
// the store. The AI tiers are optional: no API key, or a failed corpus warm,
// leaves the pipeline rule-based only.
func newPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	debug := viper.GetBool("debug")

	path, err := dbPath()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, err
	}

	timeout := time.Duration(viper.GetInt("ai.timeout_seconds")) * time.Second
	aiClient, err := ai.NewClient(ctx, resolveGeminiAPIKey(),
		viper.GetString("ai.model"), viper.GetString("ai.embed_model"), timeout, debug)
	if err != nil {
		if debug {
			fmt.Printf("AI client unavailable, continuing rule-based only: %v\n", err)
		}
		aiClient = nil
	}

	var matcher intent.SemanticMatcher
	if aiClient != nil {
		m, err := semantic.NewMatcher(aiClient)
		if err == nil {
			if err := m.Warm(ctx); err == nil {
				matcher = m
			} else if debug {
				fmt.Printf("Semantic tier disabled, corpus warm failed: %v\n", err)
			}
		} else if debug {
			fmt.Printf("Semantic tier disabled: %v\n", err)
		}
	}

	clsCfg := intent.DefaultConfig()
	clsCfg.ConfidenceFloor = viper.GetInt("classifier.confidence_floor")
	clsCfg.SemanticFloor = viper.GetFloat64("classifier.semantic_floor")
	classifier := intent.New(intent.NewTable(), matcher, clsCfg, debug)

	c := cache.New()
	registry := handlers.NewRegistry(st, c)

	cfg := pipeline.DefaultConfig()
	cfg.ConfidenceFloor = viper.GetInt("classifier.confidence_floor")
	cfg.CriticalFloor = viper.GetInt("classifier.critical_floor")
	cfg.RetrievalK = viper.GetInt("retrieval.k")
	cfg.LexiconTTL = time.Duration(viper.GetInt("cache.lexicon_ttl_minutes")) * time.Minute

	var answerer pipeline.Answerer
	if aiClient != nil {
		answerer = aiClient
	}

	p := pipeline.New(st, registry, classifier, answerer, c, cfg, debug)
	return p, func() { st.Close() }, nil
}
