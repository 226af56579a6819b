package intent

import (
	"context"
	"fmt"
	"strings"

	"github.com/parcdesk/parcbot/internal/nlp"
)

// SemanticMatcher is the optional embedding-based tier. A nil matcher (or any
// error it returns) simply skips the tier.
type SemanticMatcher interface {
	Match(ctx context.Context, query string) (intent string, score float64, err error)
}

// Config carries the classification thresholds. Values are empirically tuned;
// see the config file keys under "classifier".
type Config struct {
	// ConfidenceFloor is the minimum rule score accepted before degrading
	// to the help intent.
	ConfidenceFloor int
	// SemanticFloor is the minimum cosine similarity for the semantic tier.
	SemanticFloor float64
	// EarlyOverrideWeight is the fixed confidence of a domain guard hit.
	EarlyOverrideWeight int
	// CategoryWeight is the fixed confidence of a category sub-classifier hit.
	CategoryWeight int
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		ConfidenceFloor:     20,
		SemanticFloor:       0.80,
		EarlyOverrideWeight: 92,
		CategoryWeight:      85,
	}
}

// Classifier runs the tiers in strict priority order and short-circuits on
// the first confident result. It is safe for concurrent use: the table and
// guard list are read-only after construction.
type Classifier struct {
	table    *Table
	semantic SemanticMatcher
	cfg      Config
	debug    bool

	overrides []override
}

type override struct {
	name  string
	match func(text string, slots nlp.Slots) (string, bool)
}

// New builds a Classifier over a compiled table. semantic may be nil.
func New(table *Table, semantic SemanticMatcher, cfg Config, debug bool) *Classifier {
	c := &Classifier{table: table, semantic: semantic, cfg: cfg, debug: debug}
	c.overrides = defaultOverrides()
	return c
}

// Classify maps normalized text plus its extracted slots to a Result. It
// never fails: unclassifiable input degrades to the help intent.
func (c *Classifier) Classify(ctx context.Context, text string, slots nlp.Slots) Result {
	if text == "" {
		return Result{Intent: EmptyQuery, Confidence: 0, Slots: slots, Tier: TierNone, Query: text}
	}

	// Tier 1: phrase boosts. Precision-critical intents decide immediately.
	for _, boost := range c.table.Boosts {
		if boost.Pattern.MatchString(text) {
			return Result{Intent: boost.Intent, Confidence: boost.Weight, Slots: slots, Tier: TierPhraseBoost, Query: text}
		}
	}

	// Tier 2: curated domain guards. These exist because generic scoring is
	// too coarse for intents that share vocabulary ("commande" alone appears
	// in a dozen of them).
	for _, ov := range c.overrides {
		if name, ok := ov.match(text, slots); ok {
			if c.debug {
				fmt.Printf("[classifier] early override %q -> %s\n", ov.name, name)
			}
			return Result{Intent: name, Confidence: c.cfg.EarlyOverrideWeight, Slots: slots, Tier: TierEarlyOverride, Query: text}
		}
	}

	// Tier 3: category gates with per-category sub-classifiers.
	if name := c.classifyByCategory(text, slots); name != "" {
		return Result{Intent: name, Confidence: c.cfg.CategoryWeight, Slots: slots, Tier: TierCategory, Query: text}
	}

	// Tier 4: semantic similarity over example utterances.
	if c.semantic != nil {
		name, score, err := c.semantic.Match(ctx, text)
		if err == nil && name != "" && score >= c.cfg.SemanticFloor {
			return Result{Intent: name, Confidence: int(score * 100), Slots: slots, Tier: TierSemantic, Query: text}
		}
		if err != nil && c.debug {
			fmt.Printf("[classifier] semantic tier unavailable: %v\n", err)
		}
	}

	// Tier 5: weighted rule scoring, last resort.
	return c.scoreAll(text, slots)
}

// scoreAll accumulates pattern, keyword, fuzzy and boost weights for every
// intent and takes the arg-max. Declaration order breaks ties (strictly
// greater scores win), which keeps runs deterministic.
func (c *Classifier) scoreAll(text string, slots nlp.Slots) Result {
	tokens := tokenize(text)

	best := ""
	bestScore := 0
	for _, def := range c.table.Intents {
		score := 0
		for _, p := range def.Patterns {
			if p.MatchString(text) {
				score += 10
			}
		}
		for _, kw := range def.Keywords {
			if strings.Contains(text, kw) {
				score += 5
			}
		}
		score += 3 * fuzzyKeywordHits(tokens, def.Keywords)
		for _, boost := range c.table.Boosts {
			if boost.Intent == def.Name && boost.Pattern.MatchString(text) {
				score += 15
			}
		}
		if score > bestScore {
			bestScore = score
			best = def.Name
		}
	}

	if best != "" && bestScore >= c.cfg.ConfidenceFloor {
		return Result{Intent: best, Confidence: capConfidence(bestScore), Slots: slots, Tier: TierRuleScore, Query: text}
	}
	return Result{Intent: Help, Confidence: min(bestScore, c.cfg.ConfidenceFloor-1), Slots: slots, Tier: TierRuleScore, Query: text}
}

func capConfidence(score int) int {
	if score > 100 {
		return 100
	}
	return score
}

var listVerbRe = re(`\b(liste|lister|affiche|afficher|montre|montrer|voir|donne)\b`)

// defaultOverrides is the ordered guard list. First match wins, so keep the
// most specific detectors on top.
func defaultOverrides() []override {
	return []override{
		{
			name: "demande+list-verb",
			match: func(text string, _ nlp.Slots) (string, bool) {
				if strings.Contains(text, "demande") && listVerbRe.MatchString(text) {
					return "liste_demandes", true
				}
				return "", false
			},
		},
		{
			name: "garantie+comparator",
			match: func(text string, slots nlp.Slots) (string, bool) {
				if !strings.Contains(text, "garantie") {
					return "", false
				}
				if slots.Has(nlp.SlotThreshold) && slots[nlp.SlotThreshold].Op != "eq" {
					return "warranty_threshold", true
				}
				return "", false
			},
		},
		{
			name: "garantie+code",
			match: func(text string, slots nlp.Slots) (string, bool) {
				if strings.Contains(text, "garantie") && (slots.Has(nlp.SlotCode) || slots.Has(nlp.SlotSerial)) {
					return "warranty_details", true
				}
				return "", false
			},
		},
		{
			name: "bc-code+status-verb",
			match: func(text string, slots nlp.Slots) (string, bool) {
				code, ok := slots[nlp.SlotCode]
				if !ok || !strings.HasPrefix(code.Value, "BC-") {
					return "", false
				}
				for _, w := range []string{"statut", "etat", "detail", "suivi", "ou en est"} {
					if strings.Contains(text, w) {
						return "commande_details", true
					}
				}
				return "", false
			},
		},
		{
			name: "qui-detient",
			match: func(text string, _ nlp.Slots) (string, bool) {
				for _, w := range []string{"qui a ", "qui utilise", "qui detient", "affecte a"} {
					if strings.Contains(text, w) {
						return "affectation_materiel", true
					}
				}
				return "", false
			},
		},
	}
}

// classifyByCategory decides whether the query belongs to a broad category,
// then lets the category pick its most specific intent. An empty return means
// the gate declined and later tiers run.
func (c *Classifier) classifyByCategory(text string, slots nlp.Slots) string {
	switch {
	case isCountQuestion(text):
		return classifyCount(text)
	case isHelpQuestion(text):
		return Help
	case isAnalysisQuestion(text):
		return "stats_parc"
	case isCommandQuestion(text, slots):
		return classifyCommand(text, slots)
	case isSupplierQuestion(text):
		return classifySupplier(text)
	case isDeliveryQuestion(text):
		return classifyDelivery(text)
	case isMaterialQuestion(text):
		return classifyMaterial(text, slots)
	default:
		return ""
	}
}

func isCountQuestion(text string) bool {
	return strings.HasPrefix(text, "combien") ||
		strings.Contains(text, "nombre de") ||
		strings.Contains(text, "nombre d'") ||
		strings.Contains(text, "quel est le nombre")
}

func classifyCount(text string) string {
	switch {
	case strings.Contains(text, "commande"):
		switch {
		case strings.Contains(text, "attente"):
			return "count_pending_commands"
		case strings.Contains(text, "approuvee") || strings.Contains(text, "validee"):
			return "count_approved_commands"
		default:
			return "count_total_commands"
		}
	case strings.Contains(text, "fournisseur"):
		return "count_fournisseurs"
	case strings.Contains(text, "livraison"):
		// Lateness is a date condition, never a stored status; counting it
		// goes through the same query as the listing.
		if strings.Contains(text, "retard") {
			return "livraisons_retard"
		}
		return "count_livraisons"
	case strings.Contains(text, "demande"):
		if strings.Contains(text, "attente") {
			return "count_demandes_attente"
		}
		return "liste_demandes"
	case containsAny(text, "materiel", "equipement", "ordinateur", "imprimante", "ecran", " pc"):
		return "count_materiel"
	default:
		return ""
	}
}

func isCommandQuestion(text string, slots nlp.Slots) bool {
	if strings.Contains(text, "commande") || strings.Contains(text, "bon de commande") {
		return true
	}
	code, ok := slots[nlp.SlotCode]
	return ok && strings.HasPrefix(code.Value, "BC-")
}

func classifyCommand(text string, slots nlp.Slots) string {
	switch {
	case strings.Contains(text, "montant") || strings.Contains(text, "somme"):
		return "montant_commandes"
	case slots.Has(nlp.SlotCode):
		return "commande_details"
	default:
		return "liste_commandes"
	}
}

func isSupplierQuestion(text string) bool {
	return containsAny(text, "fournisseur", "prestataire")
}

func classifySupplier(text string) string {
	switch {
	case containsAny(text, "ice", "identifiant fiscal", "registre de commerce"):
		return "fournisseur_ice"
	case containsAny(text, "contact", "telephone", "adresse", "coordonnees", "email", "detail"):
		return "fournisseur_details"
	default:
		return "liste_fournisseurs"
	}
}

func isDeliveryQuestion(text string) bool {
	return containsAny(text, "livraison", "reception")
}

func classifyDelivery(text string) string {
	if strings.Contains(text, "retard") {
		return "livraisons_retard"
	}
	return "liste_livraisons"
}

func isMaterialQuestion(text string) bool {
	return containsAny(text, "materiel", "equipement", "ordinateur", "imprimante", "ecran", "inventaire", "parc")
}

func classifyMaterial(text string, slots nlp.Slots) string {
	switch {
	case containsAny(text, "detail", "fiche", "caracteristique") && (slots.Has(nlp.SlotCode) || slots.Has(nlp.SlotSerial)):
		return "materiel_details"
	case slots.Has(nlp.SlotUser):
		return "affectation_materiel"
	default:
		return "liste_materiel"
	}
}

func isAnalysisQuestion(text string) bool {
	return containsAny(text, "statistique", "analyse", "repartition", "rapport", "synthese", "bilan")
}

func isHelpQuestion(text string) bool {
	return containsAny(text, "aide", "help", "que peux-tu", "que sais-tu", "comment utiliser")
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
