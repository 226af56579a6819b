package nlp

import (
	"regexp"
	"strings"
)

// SlotType identifies the kind of value extracted from a query.
type SlotType string

const (
	SlotCode      SlotType = "code"
	SlotSerial    SlotType = "serial"
	SlotDate      SlotType = "date"
	SlotStatus    SlotType = "status"
	SlotLocation  SlotType = "location"
	SlotUser      SlotType = "user"
	SlotSupplier  SlotType = "supplier"
	SlotThreshold SlotType = "threshold"
	SlotAmount    SlotType = "amount"
	SlotQuoted    SlotType = "quoted"
)

// Slot is a typed value pulled out of a normalized query. Value holds the
// canonical form, Raw the matched substring. Op carries the comparator for
// threshold slots ("gt", "lt", "gte", "lte", "eq").
type Slot struct {
	Type  SlotType
	Raw   string
	Value string
	Op    string
}

// Slots maps each slot type to at most one extracted value.
type Slots map[SlotType]Slot

// Has reports whether a slot of the given type was extracted.
func (s Slots) Has(t SlotType) bool {
	_, ok := s[t]
	return ok
}

// Value returns the canonical value for a slot type, or "" when unset.
func (s Slots) Value(t SlotType) string {
	return s[t].Value
}

var (
	quotedRe = regexp.MustCompile(`"([^"]+)"|'([^']{2,})'`)

	// Inventory codes: a short type prefix plus a number, dash optional.
	// PC-123, bc23, IMP-07, srv12.
	codeRe = regexp.MustCompile(`\b(pc|bc|bl|imp|scr|srv|mat|dem|inv)[-_ ]?(\d{1,6})\b`)

	serialRe = regexp.MustCompile(`\b(?:sn|s/n|serie|serial)[:\s-]*([a-z0-9]{5,20})\b`)

	dateRes = []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`),
		regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`),
		regexp.MustCompile(`\b(\d{1,2} (?:janvier|fevrier|mars|avril|mai|juin|juillet|aout|septembre|octobre|novembre|decembre)(?: \d{4})?)\b`),
	}

	userRe     = regexp.MustCompile(`\b(?:utilisateur|employe|agent|technicien)\s+([a-z][a-z._-]+(?: [a-z][a-z._-]+)?)\b`)
	supplierRe = regexp.MustCompile(`\b(?:fournisseur|societe|ste)\s+([a-z0-9][a-z0-9&._-]+(?: [a-z0-9&._-]+)?)\b`)
	locRe      = regexp.MustCompile(`\b(?:bureau|salle|etage|depot|magasin|direction|service|local)\s+([a-z0-9-]+)\b`)

	// "plus de 5000 dh" is an amount, "plus de 10 commandes" a threshold.
	// The currency token decides; comparator words decide the operator.
	comparatorRe = regexp.MustCompile(`\b(plus de|moins de|superieur(?:e)? a|inferieur(?:e)? a|au moins|au plus|depasse(?:nt)?)\s+(\d+(?:[.,]\d+)?)`)
	amountRe     = regexp.MustCompile(`\b(\d+(?:[.,]\d+)?)\s*(?:dh|dhs|mad|dirhams?)\b`)
	bareNumRe    = regexp.MustCompile(`\b(\d+(?:[.,]\d+)?)\b`)
)

var comparatorOps = map[string]string{
	"plus de":      "gt",
	"superieur a":  "gt",
	"superieure a": "gt",
	"depasse":      "gt",
	"depassent":    "gt",
	"moins de":     "lt",
	"inferieur a":  "lt",
	"inferieure a": "lt",
	"au moins":     "gte",
	"au plus":      "lte",
}

// Status vocabulary kept in declaration order: earlier entries are more
// specific and win over later ones.
var statusLexicon = []struct {
	phrase string
	value  string
}{
	{"en attente", "en_attente"},
	{"attente", "en_attente"},
	{"approuvee", "approuvee"},
	{"approuve", "approuvee"},
	{"validee", "approuvee"},
	{"valide", "approuvee"},
	{"rejetee", "rejetee"},
	{"rejete", "rejetee"},
	{"refusee", "rejetee"},
	{"livree", "livree"},
	{"livre", "livree"},
	{"en cours", "en_cours"},
	{"en retard", "en_retard"},
	{"retard", "en_retard"},
	{"en panne", "en_panne"},
	{"panne", "en_panne"},
	{"hors service", "hors_service"},
	{"en reparation", "en_reparation"},
	{"affecte", "affecte"},
	{"disponible", "disponible"},
	{"en stock", "disponible"},
}

// Extractor pulls typed slots out of normalized text. The optional supplier
// and location lexicons come from slowly-changing reference data; extraction
// itself is a pure function of its inputs.
type Extractor struct {
	supplierNames []string
	locationNames []string
}

// NewExtractor returns an Extractor with no reference lexicons.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SetSupplierNames installs known supplier names (already normalized) used to
// recognize unquoted supplier mentions.
func (e *Extractor) SetSupplierNames(names []string) {
	e.supplierNames = names
}

// SetLocationNames installs known location names (already normalized).
func (e *Extractor) SetLocationNames(names []string) {
	e.locationNames = names
}

// Extract applies the slot rules to normalized text. For each slot type the
// first accepted rule wins. A missing slot is simply absent from the result;
// Extract never fails.
func (e *Extractor) Extract(text string) Slots {
	slots := make(Slots)
	if text == "" {
		return slots
	}

	// Quoted substrings are explicit overrides and are resolved first so
	// inferred slots cannot shadow them.
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		val := m[1]
		if val == "" {
			val = m[2]
		}
		slots[SlotQuoted] = Slot{Type: SlotQuoted, Raw: m[0], Value: strings.TrimSpace(val)}
	}

	if m := codeRe.FindStringSubmatch(text); m != nil {
		canonical := strings.ToUpper(m[1]) + "-" + m[2]
		slots[SlotCode] = Slot{Type: SlotCode, Raw: m[0], Value: canonical}
	}

	if m := serialRe.FindStringSubmatch(text); m != nil {
		slots[SlotSerial] = Slot{Type: SlotSerial, Raw: m[0], Value: strings.ToUpper(m[1])}
	}

	for _, re := range dateRes {
		if m := re.FindStringSubmatch(text); m != nil {
			slots[SlotDate] = Slot{Type: SlotDate, Raw: m[0], Value: m[1]}
			break
		}
	}

	for _, entry := range statusLexicon {
		if strings.Contains(text, entry.phrase) {
			slots[SlotStatus] = Slot{Type: SlotStatus, Raw: entry.phrase, Value: entry.value}
			break
		}
	}

	if m := userRe.FindStringSubmatch(text); m != nil {
		slots[SlotUser] = Slot{Type: SlotUser, Raw: m[0], Value: m[1]}
	}

	e.extractSupplier(text, slots)
	e.extractLocation(text, slots)
	e.extractNumeric(text, slots)

	return slots
}

func (e *Extractor) extractSupplier(text string, slots Slots) {
	// A quoted name next to supplier vocabulary is the supplier, verbatim.
	if q, ok := slots[SlotQuoted]; ok && strings.Contains(text, "fournisseur") {
		slots[SlotSupplier] = Slot{Type: SlotSupplier, Raw: q.Raw, Value: q.Value}
		return
	}
	if m := supplierRe.FindStringSubmatch(text); m != nil {
		slots[SlotSupplier] = Slot{Type: SlotSupplier, Raw: m[0], Value: m[1]}
		return
	}
	for _, name := range e.supplierNames {
		if name != "" && strings.Contains(text, name) {
			slots[SlotSupplier] = Slot{Type: SlotSupplier, Raw: name, Value: name}
			return
		}
	}
}

func (e *Extractor) extractLocation(text string, slots Slots) {
	if m := locRe.FindStringSubmatch(text); m != nil {
		slots[SlotLocation] = Slot{Type: SlotLocation, Raw: m[0], Value: strings.TrimSpace(m[0])}
		return
	}
	for _, name := range e.locationNames {
		if name != "" && strings.Contains(text, name) {
			slots[SlotLocation] = Slot{Type: SlotLocation, Raw: name, Value: name}
			return
		}
	}
}

func (e *Extractor) extractNumeric(text string, slots Slots) {
	// Currency token wins: the number is an amount even when a comparator
	// precedes it ("plus de 5000 dh").
	if m := amountRe.FindStringSubmatch(text); m != nil {
		slots[SlotAmount] = Slot{Type: SlotAmount, Raw: m[0], Value: strings.ReplaceAll(m[1], ",", ".")}
		if c := comparatorRe.FindStringSubmatch(text); c != nil {
			if op, ok := comparatorOps[c[1]]; ok {
				s := slots[SlotAmount]
				s.Op = op
				slots[SlotAmount] = s
			}
		}
		return
	}

	if m := comparatorRe.FindStringSubmatch(text); m != nil {
		op := comparatorOps[m[1]]
		if op == "" {
			op = "gt"
		}
		slots[SlotThreshold] = Slot{
			Type:  SlotThreshold,
			Raw:   m[0],
			Value: strings.ReplaceAll(m[2], ",", "."),
			Op:    op,
		}
		return
	}

	// A bare number around warranty/duration vocabulary still reads as a
	// threshold ("garantie 12 mois").
	if strings.Contains(text, "garantie") || strings.Contains(text, "mois") || strings.Contains(text, "ans") {
		if m := bareNumRe.FindStringSubmatch(text); m != nil {
			if !slots.Has(SlotCode) || !strings.Contains(slots[SlotCode].Raw, m[1]) {
				slots[SlotThreshold] = Slot{Type: SlotThreshold, Raw: m[0], Value: m[1], Op: "eq"}
			}
		}
	}
}
