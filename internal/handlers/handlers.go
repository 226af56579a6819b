package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/parcdesk/parcbot/internal/nlp"
	"github.com/parcdesk/parcbot/internal/store"
)

const listLimit = 20

// ---- materials ----

func (r *Registry) listeMateriel(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	f := store.MaterielFilter{
		Statut:       slots.Value(nlp.SlotStatus),
		Localisation: slots.Value(nlp.SlotLocation),
		Utilisateur:  slots.Value(nlp.SlotUser),
		Limit:        listLimit,
	}
	mats, err := r.store.ListMateriels(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(mats) == 0 {
		return &Result{Text: "Aucun materiel ne correspond a ces criteres.", NotFound: true}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d materiel(s) :\n", len(mats))
	for _, m := range mats {
		fmt.Fprintf(&b, "- %s : %s %s, statut %s", m.Code, m.Type, m.Marque, frStatus(m.Statut))
		if m.Utilisateur != "" {
			fmt.Fprintf(&b, ", affecte a %s", m.Utilisateur)
		}
		if m.Localisation != "" {
			fmt.Fprintf(&b, " (%s)", m.Localisation)
		}
		b.WriteString("\n")
	}
	return &Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func (r *Registry) countMateriel(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	f := store.MaterielFilter{
		Statut:       slots.Value(nlp.SlotStatus),
		Localisation: slots.Value(nlp.SlotLocation),
	}
	n, err := r.store.CountMateriels(ctx, f)
	if err != nil {
		return nil, err
	}
	if f.Statut != "" {
		return &Result{Text: fmt.Sprintf("Le parc compte %d materiel(s) avec le statut %s.", n, frStatus(f.Statut))}, nil
	}
	return &Result{Text: fmt.Sprintf("Le parc compte %d materiel(s).", n)}, nil
}

func (r *Registry) materielDetails(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	var m *store.Materiel
	var err error
	switch {
	case slots.Has(nlp.SlotCode):
		m, err = r.store.GetMaterielByCode(ctx, slots.Value(nlp.SlotCode))
	case slots.Has(nlp.SlotSerial):
		m, err = r.store.GetMaterielBySerial(ctx, slots.Value(nlp.SlotSerial))
	default:
		return &Result{Text: "Precisez le code (ex: PC-101) ou le numero de serie du materiel.", NotFound: true}, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return &Result{
			Text:     fmt.Sprintf("Aucun materiel trouve pour %s. Verifiez le code ou essayez \"liste du materiel\".", slotRef(slots)),
			NotFound: true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("%s : %s %s, serie %s, statut %s, %s, garantie jusqu'au %s, %.2f DH.",
		m.Code, m.Type, m.Marque, m.Serial, frStatus(m.Statut), orDash(m.Localisation), orDash(m.GarantieFin), m.PrixDH)
	if m.Utilisateur != "" {
		text += fmt.Sprintf(" Affecte a %s.", m.Utilisateur)
	}
	return &Result{Text: text}, nil
}

func (r *Registry) affectationMateriel(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	if slots.Has(nlp.SlotCode) {
		m, err := r.store.GetMaterielByCode(ctx, slots.Value(nlp.SlotCode))
		if errors.Is(err, store.ErrNotFound) {
			return &Result{Text: fmt.Sprintf("Aucun materiel trouve pour le code %s.", slots.Value(nlp.SlotCode)), NotFound: true}, nil
		}
		if err != nil {
			return nil, err
		}
		if m.Utilisateur == "" {
			return &Result{Text: fmt.Sprintf("%s n'est affecte a personne (statut %s).", m.Code, frStatus(m.Statut))}, nil
		}
		return &Result{Text: fmt.Sprintf("%s est affecte a %s (%s).", m.Code, m.Utilisateur, orDash(m.Localisation))}, nil
	}

	user := slots.Value(nlp.SlotUser)
	if user == "" {
		user = slots.Value(nlp.SlotQuoted)
	}
	if user == "" {
		return &Result{Text: "Precisez l'utilisateur ou le code du materiel.", NotFound: true}, nil
	}
	// Resolve a partial name against the user directory so "karim" reads as
	// the stored "karim alaoui" and unknown names are told apart from users
	// without equipment.
	u, err := r.store.GetUtilisateurByName(ctx, user)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if u != nil {
		user = u.Nom
	}
	mats, err := r.store.ListMateriels(ctx, store.MaterielFilter{Utilisateur: user, Limit: listLimit})
	if err != nil {
		return nil, err
	}
	if len(mats) == 0 {
		if u != nil {
			return &Result{Text: fmt.Sprintf("Aucun materiel affecte a %s (service %s).", u.Nom, u.Service), NotFound: true}, nil
		}
		return &Result{Text: fmt.Sprintf("Aucun utilisateur ni materiel trouve pour %s.", user), NotFound: true}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Materiel affecte a %s :\n", user)
	for _, m := range mats {
		fmt.Fprintf(&b, "- %s : %s %s\n", m.Code, m.Type, m.Marque)
	}
	return &Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}

// ---- orders ----

func (r *Registry) listeCommandes(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	f := store.CommandeFilter{
		Statut:      slots.Value(nlp.SlotStatus),
		Fournisseur: slots.Value(nlp.SlotSupplier),
		Limit:       listLimit,
	}
	cmds, err := r.store.ListCommandes(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		return &Result{Text: "Aucune commande ne correspond a ces criteres.", NotFound: true}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d commande(s) :\n", len(cmds))
	for _, c := range cmds {
		fmt.Fprintf(&b, "- %s : %s, %s, %.2f DH (%s)\n", c.Code, c.Fournisseur, frStatus(c.Statut), c.MontantDH, c.DateCommande)
	}
	return &Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func (r *Registry) countCommandes(statut string) Handler {
	return func(ctx context.Context, _ nlp.Slots, _ string) (*Result, error) {
		n, err := r.store.CountCommandes(ctx, statut)
		if err != nil {
			return nil, err
		}
		switch statut {
		case "en_attente":
			return &Result{Text: fmt.Sprintf("Il y a %d commande(s) en attente.", n)}, nil
		case "approuvee":
			return &Result{Text: fmt.Sprintf("Il y a %d commande(s) approuvee(s).", n)}, nil
		default:
			return &Result{Text: fmt.Sprintf("Il y a %d commande(s) au total.", n)}, nil
		}
	}
}

func (r *Registry) commandeDetails(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	code := slots.Value(nlp.SlotCode)
	if code == "" {
		return &Result{Text: "Precisez le numero du bon de commande (ex: BC-24).", NotFound: true}, nil
	}
	c, err := r.store.GetCommandeByCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return &Result{
			Text:     fmt.Sprintf("Aucune commande trouvee pour %s. Essayez \"liste des commandes\".", code),
			NotFound: true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Text: fmt.Sprintf("Commande %s : fournisseur %s, statut %s, %.2f DH, passee le %s.",
		c.Code, c.Fournisseur, frStatus(c.Statut), c.MontantDH, c.DateCommande)}, nil
}

func (r *Registry) montantCommandes(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	statut := slots.Value(nlp.SlotStatus)
	total, err := r.store.SumMontantCommandes(ctx, statut)
	if err != nil {
		return nil, err
	}
	if statut != "" {
		return &Result{Text: fmt.Sprintf("Montant total des commandes %s : %.2f DH.", frStatus(statut), total)}, nil
	}
	return &Result{Text: fmt.Sprintf("Montant total des commandes : %.2f DH.", total)}, nil
}

// ---- suppliers ----

func (r *Registry) listeFournisseurs(ctx context.Context, _ nlp.Slots, _ string) (*Result, error) {
	fs, err := r.store.ListFournisseurs(ctx)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return &Result{Text: "Aucun fournisseur enregistre.", NotFound: true}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d fournisseur(s) :\n", len(fs))
	for _, f := range fs {
		fmt.Fprintf(&b, "- %s (%s)\n", f.Nom, orDash(f.Telephone))
	}
	return &Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func (r *Registry) countFournisseurs(ctx context.Context, _ nlp.Slots, _ string) (*Result, error) {
	n, err := r.store.CountFournisseurs(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{Text: fmt.Sprintf("Il y a %d fournisseur(s) enregistre(s).", n)}, nil
}

func (r *Registry) fournisseurDetails(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	name := supplierRef(slots)
	if name == "" {
		return &Result{Text: "Precisez le nom du fournisseur (ex: \"Atlas Informatique\").", NotFound: true}, nil
	}
	f, err := r.store.GetFournisseurByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		if sugg := r.suggestSupplier(ctx, name); sugg != "" {
			return &Result{
				Text:     fmt.Sprintf("Aucun fournisseur trouve pour \"%s\". Vouliez-vous dire \"%s\" ?", name, sugg),
				NotFound: true,
			}, nil
		}
		return &Result{
			Text:     fmt.Sprintf("Aucun fournisseur trouve pour \"%s\". Essayez \"liste des fournisseurs\".", name),
			NotFound: true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Text: fmt.Sprintf("%s : tel %s, email %s, adresse %s.",
		f.Nom, orDash(f.Telephone), orDash(f.Email), orDash(f.Adresse))}, nil
}

func (r *Registry) fournisseurICE(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	name := supplierRef(slots)
	if name == "" {
		return &Result{Text: "Precisez le nom du fournisseur dont vous cherchez l'ICE.", NotFound: true}, nil
	}
	f, err := r.store.GetFournisseurByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		if sugg := r.suggestSupplier(ctx, name); sugg != "" {
			return &Result{
				Text:     fmt.Sprintf("Aucun fournisseur trouve pour \"%s\". Vouliez-vous dire \"%s\" ?", name, sugg),
				NotFound: true,
			}, nil
		}
		return &Result{
			Text:     fmt.Sprintf("Aucun fournisseur trouve pour \"%s\". Verifiez l'orthographe du nom.", name),
			NotFound: true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Result{Text: fmt.Sprintf("%s : ICE %s, RC %s.", f.Nom, orDash(f.ICE), orDash(f.RC))}, nil
}

// ---- deliveries ----

func (r *Registry) listeLivraisons(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	ls, err := r.store.ListLivraisons(ctx, slots.Value(nlp.SlotStatus), listLimit)
	if err != nil {
		return nil, err
	}
	if len(ls) == 0 {
		return &Result{Text: "Aucune livraison ne correspond a ces criteres.", NotFound: true}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d livraison(s) :\n", len(ls))
	for _, l := range ls {
		fmt.Fprintf(&b, "- %s (commande %s, %s) : prevue le %s, %s\n",
			l.Code, l.CommandeCode, l.Fournisseur, l.DatePrevue, frStatus(l.Statut))
	}
	return &Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func (r *Registry) livraisonsRetard(ctx context.Context, _ nlp.Slots, _ string) (*Result, error) {
	ls, err := r.store.LateLivraisons(ctx)
	if err != nil {
		return nil, err
	}
	if len(ls) == 0 {
		return &Result{Text: "Aucune livraison en retard. Tout est dans les delais."}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d livraison(s) en retard :\n", len(ls))
	for _, l := range ls {
		fmt.Fprintf(&b, "- %s (%s) : prevue le %s, toujours non recue\n", l.Code, l.Fournisseur, l.DatePrevue)
	}
	return &Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func (r *Registry) countLivraisons(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	// "en retard" is a date condition, not a stored status; counting on it
	// must use the same late query as the listing.
	if slots.Value(nlp.SlotStatus) == "en_retard" {
		ls, err := r.store.LateLivraisons(ctx)
		if err != nil {
			return nil, err
		}
		return &Result{Text: fmt.Sprintf("Il y a %d livraison(s) en retard.", len(ls))}, nil
	}
	n, err := r.store.CountLivraisons(ctx, slots.Value(nlp.SlotStatus))
	if err != nil {
		return nil, err
	}
	return &Result{Text: fmt.Sprintf("Il y a %d livraison(s).", n)}, nil
}

// ---- equipment requests ----

func (r *Registry) listeDemandes(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	ds, err := r.store.ListDemandes(ctx, slots.Value(nlp.SlotStatus), listLimit)
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return &Result{Text: "Aucune demande ne correspond a ces criteres.", NotFound: true}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d demande(s) :\n", len(ds))
	for _, d := range ds {
		fmt.Fprintf(&b, "- %s : %s demande %s, %s (%s)\n", d.Code, d.Utilisateur, d.Objet, frStatus(d.Statut), d.DateDemande)
	}
	return &Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}

func (r *Registry) countDemandesAttente(ctx context.Context, _ nlp.Slots, _ string) (*Result, error) {
	n, err := r.store.CountDemandes(ctx, "en_attente")
	if err != nil {
		return nil, err
	}
	return &Result{Text: fmt.Sprintf("Il y a %d demande(s) en attente.", n)}, nil
}

// ---- warranty ----

func (r *Registry) warrantyDetails(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	switch {
	case slots.Has(nlp.SlotCode):
		code := slots.Value(nlp.SlotCode)
		if strings.HasPrefix(code, "BC-") {
			// Warranty asked on an order code: report on the order's materials
			// by way of the order itself.
			c, err := r.store.GetCommandeByCode(ctx, code)
			if errors.Is(err, store.ErrNotFound) {
				return &Result{Text: fmt.Sprintf("Aucune commande trouvee pour %s.", code), NotFound: true}, nil
			}
			if err != nil {
				return nil, err
			}
			return &Result{Text: fmt.Sprintf("La commande %s (fournisseur %s) date du %s ; la garantie court a partir de la reception. Consultez le materiel associe pour la date exacte.",
				c.Code, c.Fournisseur, c.DateCommande)}, nil
		}
		m, err := r.store.GetMaterielByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return &Result{Text: fmt.Sprintf("Aucun materiel trouve pour %s.", code), NotFound: true}, nil
		}
		if err != nil {
			return nil, err
		}
		if m.GarantieFin == "" {
			return &Result{Text: fmt.Sprintf("%s n'a pas de garantie enregistree.", m.Code)}, nil
		}
		return &Result{Text: fmt.Sprintf("La garantie de %s (%s %s) court jusqu'au %s.", m.Code, m.Type, m.Marque, m.GarantieFin)}, nil
	case slots.Has(nlp.SlotSerial):
		m, err := r.store.GetMaterielBySerial(ctx, slots.Value(nlp.SlotSerial))
		if errors.Is(err, store.ErrNotFound) {
			return &Result{Text: fmt.Sprintf("Aucun materiel trouve pour la serie %s.", slots.Value(nlp.SlotSerial)), NotFound: true}, nil
		}
		if err != nil {
			return nil, err
		}
		return &Result{Text: fmt.Sprintf("La garantie de %s court jusqu'au %s.", m.Code, orDash(m.GarantieFin))}, nil
	default:
		return &Result{Text: "Precisez le code du materiel (ex: PC-101) pour consulter sa garantie.", NotFound: true}, nil
	}
}

func (r *Registry) warrantyThreshold(ctx context.Context, slots nlp.Slots, _ string) (*Result, error) {
	months := 12
	op := "gt"
	if t, ok := slots[nlp.SlotThreshold]; ok {
		if v, err := strconv.Atoi(t.Value); err == nil {
			months = v
		}
		if t.Op != "" {
			op = t.Op
		}
	}
	mats, err := r.store.MaterielsByWarranty(ctx, months, op)
	if err != nil {
		return nil, err
	}
	rel := "plus"
	if op == "lt" || op == "lte" {
		rel = "moins"
	}
	if len(mats) == 0 {
		return &Result{Text: fmt.Sprintf("Aucun materiel avec %s de %d mois de garantie restante.", rel, months), NotFound: true}, nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d materiel(s) avec %s de %d mois de garantie :\n", len(mats), rel, months)
	for _, m := range mats {
		fmt.Fprintf(&b, "- %s : %s %s, garantie jusqu'au %s\n", m.Code, m.Type, m.Marque, m.GarantieFin)
	}
	return &Result{Text: strings.TrimRight(b.String(), "\n")}, nil
}

// ---- analysis ----

func (r *Registry) statsParc(ctx context.Context, _ nlp.Slots, _ string) (*Result, error) {
	nMat, err := r.store.CountMateriels(ctx, store.MaterielFilter{})
	if err != nil {
		return nil, err
	}
	nCmd, err := r.store.CountCommandes(ctx, "")
	if err != nil {
		return nil, err
	}
	nPending, err := r.store.CountCommandes(ctx, "en_attente")
	if err != nil {
		return nil, err
	}
	nFour, err := r.store.CountFournisseurs(ctx)
	if err != nil {
		return nil, err
	}
	total, err := r.store.SumMontantCommandes(ctx, "")
	if err != nil {
		return nil, err
	}
	return &Result{Text: fmt.Sprintf(
		"Etat du parc : %d materiel(s), %d commande(s) dont %d en attente, %d fournisseur(s), montant total des commandes %.2f DH.",
		nMat, nCmd, nPending, nFour, total)}, nil
}

// ---- help ----

func (r *Registry) help(_ context.Context, _ nlp.Slots, _ string) (*Result, error) {
	return &Result{Text: HelpText}, nil
}

// HelpText lists what the assistant can answer. Also the terminal fallback
// response when every other tier comes up empty.
const HelpText = `Je reponds aux questions sur le parc informatique. Par exemple :
- "Liste du materiel" ou "combien de PC disponibles"
- "Garantie de PC-101", "materiels avec plus de 12 mois de garantie"
- "Combien de commandes en attente", "statut de la commande BC-24"
- "Liste des fournisseurs", "ICE du fournisseur Atlas Informatique"
- "Livraisons en retard", "liste des demandes de materiel"
- "Montant total des commandes", "statistiques du parc"`

// ---- helpers ----

var statusLabels = map[string]string{
	"en_attente":    "en attente",
	"approuvee":     "approuvee",
	"rejetee":       "rejetee",
	"livree":        "livree",
	"en_cours":      "en cours",
	"en_retard":     "en retard",
	"en_panne":      "en panne",
	"hors_service":  "hors service",
	"en_reparation": "en reparation",
	"affecte":       "affecte",
	"disponible":    "disponible",
}

func frStatus(s string) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func slotRef(slots nlp.Slots) string {
	if slots.Has(nlp.SlotCode) {
		return slots.Value(nlp.SlotCode)
	}
	return slots.Value(nlp.SlotSerial)
}

func supplierRef(slots nlp.Slots) string {
	if slots.Has(nlp.SlotSupplier) {
		return slots.Value(nlp.SlotSupplier)
	}
	return slots.Value(nlp.SlotQuoted)
}
