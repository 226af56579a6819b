// Package pipeline is the query-understanding entry point: normalize,
// extract, classify, dispatch, respond. Process never returns an error and
// never lets a handler panic escape.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/parcdesk/parcbot/internal/cache"
	"github.com/parcdesk/parcbot/internal/handlers"
	"github.com/parcdesk/parcbot/internal/intent"
	"github.com/parcdesk/parcbot/internal/nlp"
	"github.com/parcdesk/parcbot/internal/store"
)

// Envelope is the uniform response of every terminal state. Source names the
// terminal (validation, handler, generic, llm, static_help); Method names the
// classification tier that picked the intent.
type Envelope struct {
	Response   string `json:"response"`
	Intent     string `json:"intent"`
	Confidence int    `json:"confidence"`
	Source     string `json:"source"`
	Method     string `json:"method"`
}

// Answerer is the optional last-resort language-model tier.
type Answerer interface {
	Answer(ctx context.Context, question string, retrieved []string) (string, error)
}

// HandlerSource resolves intents to handlers and serves the fallback
// lookups. Satisfied by *handlers.Registry.
type HandlerSource interface {
	Get(name string) (handlers.Handler, bool)
	Generic(ctx context.Context, slots nlp.Slots, query string) (*handlers.Result, error)
	Retrieve(ctx context.Context, slots nlp.Slots, query string, k int) ([]string, error)
}

// Config carries dispatcher thresholds.
type Config struct {
	// ConfidenceFloor gates dispatch on generic intents.
	ConfidenceFloor int
	// CriticalFloor gates the high-stakes intents in CriticalIntents; below
	// it they fall back rather than guessing.
	CriticalFloor   int
	CriticalIntents []string
	// RetrievalK is the number of rows fed to the LLM tier.
	RetrievalK int
	// LexiconTTL bounds the supplier-name cache.
	LexiconTTL time.Duration
}

// DefaultConfig returns the tuned dispatcher defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceFloor: 20,
		CriticalFloor:   50,
		CriticalIntents: []string{"fournisseur_ice", "warranty_details", "commande_details", "montant_commandes"},
		RetrievalK:      8,
		LexiconTTL:      10 * time.Minute,
	}
}

type Pipeline struct {
	store      *store.Store
	registry   HandlerSource
	classifier *intent.Classifier
	answerer   Answerer
	cache      *cache.Cache
	cfg        Config
	critical   map[string]bool
	debug      bool
}

// New assembles the pipeline. answerer may be nil; the LLM tier then yields
// the static help text instead.
func New(st *store.Store, reg HandlerSource, cls *intent.Classifier, answerer Answerer, c *cache.Cache, cfg Config, debug bool) *Pipeline {
	critical := make(map[string]bool, len(cfg.CriticalIntents))
	for _, name := range cfg.CriticalIntents {
		critical[name] = true
	}
	return &Pipeline{
		store:      st,
		registry:   reg,
		classifier: cls,
		answerer:   answerer,
		cache:      c,
		cfg:        cfg,
		critical:   critical,
		debug:      debug,
	}
}

// Process answers one query. Four terminal outcomes: handler success,
// handler failure -> fallback, low confidence -> fallback, empty input.
// Every path returns a well-formed Envelope; nothing propagates upward.
func (p *Pipeline) Process(ctx context.Context, query string) Envelope {
	norm := nlp.Normalize(query)
	if norm == "" {
		return Envelope{
			Response:   emptyPrompt,
			Intent:     intent.EmptyQuery,
			Confidence: 0,
			Source:     "validation",
			Method:     string(intent.TierNone),
		}
	}

	extractor := p.newExtractor(ctx)
	slots := extractor.Extract(norm)

	res := p.classifier.Classify(ctx, norm, slots)
	if p.debug {
		fmt.Printf("[pipeline] intent=%s confidence=%d tier=%s slots=%d\n", res.Intent, res.Confidence, res.Tier, len(slots))
	}

	floor := p.cfg.ConfidenceFloor
	if p.critical[res.Intent] {
		floor = p.cfg.CriticalFloor
	}
	if res.Confidence < floor {
		return p.fallback(ctx, res, slots, norm)
	}

	handler, ok := p.registry.Get(res.Intent)
	if !ok {
		return p.fallback(ctx, res, slots, norm)
	}

	result, err := p.invoke(ctx, handler, slots, norm)
	if err != nil || result == nil || result.Text == "" {
		if err != nil && p.debug {
			fmt.Printf("[pipeline] handler %s failed: %v\n", res.Intent, err)
		}
		return p.fallback(ctx, res, slots, norm)
	}

	return Envelope{
		Response:   result.Text,
		Intent:     res.Intent,
		Confidence: res.Confidence,
		Source:     "handler",
		Method:     string(res.Tier),
	}
}

// invoke runs a handler inside an isolating boundary: a panic is reported as
// an error and treated as "no match".
func (p *Pipeline) invoke(ctx context.Context, h handlers.Handler, slots nlp.Slots, query string) (result *handlers.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h(ctx, slots, query)
}

// fallback walks the chain: generic cross-entity lookup, then the grounded
// LLM, then static help.
func (p *Pipeline) fallback(ctx context.Context, res intent.Result, slots nlp.Slots, norm string) Envelope {
	if generic, err := p.registry.Generic(ctx, slots, norm); err == nil && generic != nil && generic.Text != "" {
		return Envelope{
			Response:   generic.Text,
			Intent:     res.Intent,
			Confidence: res.Confidence,
			Source:     "generic",
			Method:     string(res.Tier),
		}
	} else if err != nil && p.debug {
		fmt.Printf("[pipeline] generic fallback failed: %v\n", err)
	}

	if p.answerer != nil {
		retrieved, err := p.registry.Retrieve(ctx, slots, norm, p.cfg.RetrievalK)
		if err == nil {
			answer, aerr := p.answerer.Answer(ctx, norm, retrieved)
			if aerr == nil && answer != "" {
				return Envelope{
					Response:   answer,
					Intent:     res.Intent,
					Confidence: res.Confidence,
					Source:     "llm",
					Method:     string(res.Tier),
				}
			}
			if aerr != nil && p.debug {
				fmt.Printf("[pipeline] llm fallback failed: %v\n", aerr)
			}
		}
	}

	return Envelope{
		Response:   notFoundPrefix + "\n\n" + handlers.HelpText,
		Intent:     res.Intent,
		Confidence: res.Confidence,
		Source:     "static_help",
		Method:     string(res.Tier),
	}
}

// newExtractor returns a per-request extractor loaded with the cached
// supplier-name lexicon. Reference lists refresh on a bounded TTL.
func (p *Pipeline) newExtractor(ctx context.Context) *nlp.Extractor {
	ex := nlp.NewExtractor()
	if names, ok := p.cache.GetStrings("supplier_names"); ok {
		ex.SetSupplierNames(names)
		return ex
	}
	names, err := p.store.SupplierNames(ctx)
	if err != nil {
		if p.debug {
			fmt.Printf("[pipeline] supplier lexicon unavailable: %v\n", err)
		}
		return ex
	}
	p.cache.Set("supplier_names", names, p.cfg.LexiconTTL)
	ex.SetSupplierNames(names)
	return ex
}
