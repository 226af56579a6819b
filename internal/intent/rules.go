package intent

import (
	"regexp"

	"github.com/parcdesk/parcbot/internal/nlp"
)

// All patterns run against normalized text: lower-case, no diacritics,
// single spaces. Keep the lists in that form.

func re(expr string) *regexp.Regexp { return regexp.MustCompile(expr) }

// NewTable compiles the default rule set. Declaration order matters: it is
// the deterministic within-tier tie-break for scoring.
func NewTable() *Table {
	t := &Table{
		Intents: []Definition{
			{
				Name: "liste_materiel",
				Patterns: []*regexp.Regexp{
					re(`\b(liste|affiche|montre|voir)\b.*\bmateriel(s)?\b`),
					re(`\bmateriels? disponibles?\b`),
					re(`\bquels? (sont les )?materiels?\b`),
				},
				Keywords: []string{"materiel", "equipement", "pc", "ordinateur", "imprimante", "ecran", "liste", "inventaire", "parc"},
				Slots:    []nlp.SlotType{nlp.SlotStatus, nlp.SlotLocation},
			},
			{
				Name: "count_materiel",
				Patterns: []*regexp.Regexp{
					re(`\b(combien|nombre) (de |d')?(materiels?|equipements?|pc|ordinateurs?|imprimantes?)\b`),
				},
				Keywords: []string{"combien", "nombre", "total", "materiel", "equipement"},
				Slots:    []nlp.SlotType{nlp.SlotStatus, nlp.SlotLocation},
			},
			{
				Name: "materiel_details",
				Patterns: []*regexp.Regexp{
					re(`\b(detail|info|fiche|caracteristique)s? (du |de |sur )?(materiel|equipement|pc)\b`),
				},
				Keywords: []string{"detail", "fiche", "info", "caracteristique", "materiel", "serie"},
				Slots:    []nlp.SlotType{nlp.SlotCode, nlp.SlotSerial},
			},
			{
				Name: "affectation_materiel",
				Patterns: []*regexp.Regexp{
					re(`\b(qui (a|utilise|detient))\b`),
					re(`\baffecte a\b`),
					re(`\bmateriels? de l'utilisateur\b`),
				},
				Keywords: []string{"affecte", "affectation", "utilisateur", "detient", "utilise", "attribue"},
				Slots:    []nlp.SlotType{nlp.SlotUser, nlp.SlotCode},
			},
			{
				Name: "liste_commandes",
				Patterns: []*regexp.Regexp{
					re(`\b(liste|affiche|montre|voir)\b.*\b(commandes?|bons? de commande)\b`),
				},
				Keywords: []string{"commande", "bon", "achat", "liste", "bc"},
				Slots:    []nlp.SlotType{nlp.SlotStatus, nlp.SlotDate, nlp.SlotSupplier},
			},
			{
				Name: "count_total_commands",
				Patterns: []*regexp.Regexp{
					re(`\b(combien|nombre) (de |d')?commandes?\b`),
				},
				Keywords: []string{"combien", "nombre", "total", "commande"},
			},
			{
				Name: "count_pending_commands",
				Patterns: []*regexp.Regexp{
					re(`\b(combien|nombre) (de |d')?commandes? en attente\b`),
					re(`\bcommandes? (en )?attente\b.*\b(combien|nombre)\b`),
				},
				Keywords: []string{"combien", "commande", "attente", "pendante"},
			},
			{
				Name: "count_approved_commands",
				Patterns: []*regexp.Regexp{
					re(`\b(combien|nombre) (de |d')?commandes? approuvees?\b`),
				},
				Keywords: []string{"combien", "commande", "approuvee", "validee"},
			},
			{
				Name: "commande_details",
				Patterns: []*regexp.Regexp{
					re(`\b(detail|statut|etat|suivi)s? (de la |du |de )?(commande|bc)\b`),
				},
				Keywords: []string{"detail", "statut", "etat", "suivi", "commande"},
				Slots:    []nlp.SlotType{nlp.SlotCode},
			},
			{
				Name: "montant_commandes",
				Patterns: []*regexp.Regexp{
					re(`\bmontant (total )?(des )?commandes?\b`),
					re(`\b(total|somme) (des )?(achats|depenses|montants)\b`),
				},
				Keywords: []string{"montant", "total", "somme", "depense", "budget", "dh"},
				Slots:    []nlp.SlotType{nlp.SlotAmount, nlp.SlotDate},
			},
			{
				Name: "liste_fournisseurs",
				Patterns: []*regexp.Regexp{
					re(`\b(liste|affiche|montre|voir)\b.*\bfournisseurs?\b`),
					re(`\bquels? (sont les )?fournisseurs?\b`),
				},
				Keywords: []string{"fournisseur", "societe", "prestataire", "liste"},
			},
			{
				Name: "count_fournisseurs",
				Patterns: []*regexp.Regexp{
					re(`\b(combien|nombre) (de |d')?fournisseurs?\b`),
				},
				Keywords: []string{"combien", "nombre", "fournisseur"},
			},
			{
				Name: "fournisseur_details",
				Patterns: []*regexp.Regexp{
					re(`\b(detail|info|contact|coordonnees?|telephone|adresse)s? (du |de |sur )?fournisseur\b`),
				},
				Keywords: []string{"detail", "contact", "coordonnees", "telephone", "adresse", "fournisseur"},
				Slots:    []nlp.SlotType{nlp.SlotSupplier, nlp.SlotQuoted},
			},
			{
				Name: "fournisseur_ice",
				Patterns: []*regexp.Regexp{
					re(`\b(ice|identifiant fiscal|if|registre de commerce|rc)\b.*\bfournisseur\b`),
					re(`\bfournisseur\b.*\b(ice|identifiant fiscal|registre de commerce)\b`),
				},
				Keywords: []string{"ice", "fiscal", "registre", "commerce", "fournisseur"},
				Slots:    []nlp.SlotType{nlp.SlotSupplier, nlp.SlotQuoted},
			},
			{
				Name: "liste_livraisons",
				Patterns: []*regexp.Regexp{
					re(`\b(liste|affiche|montre|voir)\b.*\blivraisons?\b`),
				},
				Keywords: []string{"livraison", "reception", "bl", "liste"},
				Slots:    []nlp.SlotType{nlp.SlotDate, nlp.SlotStatus},
			},
			{
				Name: "livraisons_retard",
				Patterns: []*regexp.Regexp{
					re(`\blivraisons? en retard\b`),
					re(`\bretards? de livraison\b`),
				},
				Keywords: []string{"livraison", "retard", "delai"},
			},
			{
				Name: "count_livraisons",
				Patterns: []*regexp.Regexp{
					re(`\b(combien|nombre) (de |d')?livraisons?\b`),
				},
				Keywords: []string{"combien", "nombre", "livraison"},
			},
			{
				Name: "liste_demandes",
				Patterns: []*regexp.Regexp{
					re(`\b(liste|affiche|montre|voir)\b.*\bdemandes?\b`),
				},
				Keywords: []string{"demande", "requete", "besoin", "liste"},
				Slots:    []nlp.SlotType{nlp.SlotStatus, nlp.SlotUser},
			},
			{
				Name: "count_demandes_attente",
				Patterns: []*regexp.Regexp{
					re(`\b(combien|nombre) (de |d')?demandes? en attente\b`),
				},
				Keywords: []string{"combien", "demande", "attente"},
			},
			{
				Name: "warranty_details",
				Patterns: []*regexp.Regexp{
					re(`\bgarantie (du |de la |de |d')`),
					re(`\b(fin|date|expiration) de garantie\b`),
				},
				Keywords: []string{"garantie", "expiration", "fin", "couverture"},
				Slots:    []nlp.SlotType{nlp.SlotCode, nlp.SlotSerial},
			},
			{
				Name: "warranty_threshold",
				Patterns: []*regexp.Regexp{
					re(`\bgarantie\b.*\b(plus de|moins de|superieur|inferieur|au moins)\b`),
					re(`\bmateriels? sous garantie\b`),
				},
				Keywords: []string{"garantie", "plus", "moins", "mois", "expire"},
				Slots:    []nlp.SlotType{nlp.SlotThreshold},
			},
			{
				Name: "stats_parc",
				Patterns: []*regexp.Regexp{
					re(`\b(statistiques?|analyse|repartition|rapport|synthese|bilan)\b`),
				},
				Keywords: []string{"statistique", "analyse", "repartition", "rapport", "synthese", "bilan", "etat du parc"},
			},
			{
				Name: Help,
				Patterns: []*regexp.Regexp{
					re(`\b(aide|help|comment (ca marche|utiliser))\b`),
					re(`\bque (peux|sais)[- ]tu faire\b`),
				},
				Keywords: []string{"aide", "help", "comment", "utiliser", "capacites"},
			},
		},
		Boosts: []PhraseBoost{
			// False negatives are costly on these lookups: a miss silently
			// routes a fiscal-identifier question into generic supplier chat.
			{Intent: "fournisseur_ice", Pattern: re(`\b(ice|identifiant fiscal|registre de commerce)\b.*\bfournisseur`), Weight: 95},
			{Intent: "fournisseur_ice", Pattern: re(`\bfournisseur\b.*\b(ice|identifiant fiscal|registre de commerce)\b`), Weight: 95},
			{Intent: "liste_fournisseurs", Pattern: re(`^liste des? fournisseurs?$`), Weight: 95},
			{Intent: "liste_materiel", Pattern: re(`^liste d(u|es) materiels?$`), Weight: 95},
			{Intent: "montant_commandes", Pattern: re(`^montant total des commandes`), Weight: 95},
		},
	}
	t.index()
	return t
}
