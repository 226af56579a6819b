package store

// Row types returned by the read operations. Dates travel as ISO strings
// (sqlite TEXT affinity); amounts are dirhams.

type Materiel struct {
	ID           int64
	Code         string
	Type         string
	Marque       string
	Serial       string
	Statut       string
	Localisation string
	Utilisateur  string
	GarantieFin  string
	PrixDH       float64
}

type Commande struct {
	ID           int64
	Code         string
	Fournisseur  string
	Statut       string
	DateCommande string
	MontantDH    float64
}

type Fournisseur struct {
	ID        int64
	Nom       string
	ICE       string
	RC        string
	Telephone string
	Email     string
	Adresse   string
}

type Livraison struct {
	ID            int64
	Code          string
	CommandeCode  string
	Fournisseur   string
	DatePrevue    string
	DateReception string
	Statut        string
}

type Demande struct {
	ID          int64
	Code        string
	Utilisateur string
	Objet       string
	Statut      string
	DateDemande string
}

type Utilisateur struct {
	ID      int64
	Nom     string
	Service string
}

// MaterielFilter narrows material listings. Empty fields are ignored.
type MaterielFilter struct {
	Statut       string
	Localisation string
	Utilisateur  string
	Limit        int
}

// CommandeFilter narrows order listings. Empty fields are ignored.
type CommandeFilter struct {
	Statut      string
	Fournisseur string
	Limit       int
}

// SearchHit is one row from the cross-entity search used by the generic
// fallback and the retrieval step of the LLM tier.
type SearchHit struct {
	Entity  string
	Code    string
	Summary string
}
