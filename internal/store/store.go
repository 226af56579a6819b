// Package store is the relational inventory store. It only issues typed read
// queries built from extracted entities; schema creation and seeding live in
// seed.go so the CLI can bootstrap a demo database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotFound marks a lookup that matched nothing. Handlers translate it
// into a "not found, did you mean" message instead of an error trace.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// A single connection keeps :memory: databases coherent and sidesteps
	// sqlite's single-writer lock.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to reach database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the handle for seeding.
func (s *Store) DB() *sql.DB { return s.db }

// ---- materials ----

func (s *Store) ListMateriels(ctx context.Context, f MaterielFilter) ([]Materiel, error) {
	q := `SELECT id, code, type, marque, serial, statut, localisation, utilisateur, garantie_fin, prix_dh FROM materiels`
	where, args := materielWhere(f)
	q += where + ` ORDER BY code`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	defer rows.Close()

	var out []Materiel
	for rows.Next() {
		var m Materiel
		if err := rows.Scan(&m.ID, &m.Code, &m.Type, &m.Marque, &m.Serial, &m.Statut, &m.Localisation, &m.Utilisateur, &m.GarantieFin, &m.PrixDH); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) CountMateriels(ctx context.Context, f MaterielFilter) (int, error) {
	where, args := materielWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM materiels`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count materials: %w", err)
	}
	return n, nil
}

func materielWhere(f MaterielFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Statut != "" {
		conds = append(conds, "statut = ?")
		args = append(args, f.Statut)
	}
	if f.Localisation != "" {
		conds = append(conds, "localisation LIKE ?")
		args = append(args, "%"+f.Localisation+"%")
	}
	if f.Utilisateur != "" {
		conds = append(conds, "utilisateur LIKE ?")
		args = append(args, "%"+f.Utilisateur+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) GetMaterielByCode(ctx context.Context, code string) (*Materiel, error) {
	var m Materiel
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, type, marque, serial, statut, localisation, utilisateur, garantie_fin, prix_dh
		 FROM materiels WHERE code = ?`, code).
		Scan(&m.ID, &m.Code, &m.Type, &m.Marque, &m.Serial, &m.Statut, &m.Localisation, &m.Utilisateur, &m.GarantieFin, &m.PrixDH)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get material %s: %w", code, err)
	}
	return &m, nil
}

func (s *Store) GetMaterielBySerial(ctx context.Context, serial string) (*Materiel, error) {
	var m Materiel
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, type, marque, serial, statut, localisation, utilisateur, garantie_fin, prix_dh
		 FROM materiels WHERE serial = ?`, serial).
		Scan(&m.ID, &m.Code, &m.Type, &m.Marque, &m.Serial, &m.Statut, &m.Localisation, &m.Utilisateur, &m.GarantieFin, &m.PrixDH)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get material by serial %s: %w", serial, err)
	}
	return &m, nil
}

// MaterielsByWarranty returns materials whose warranty extends at least (op
// "gt"/"gte") or at most (op "lt"/"lte") months from today.
func (s *Store) MaterielsByWarranty(ctx context.Context, months int, op string) ([]Materiel, error) {
	cmp := ">="
	switch op {
	case "lt", "lte":
		cmp = "<="
	}
	q := fmt.Sprintf(
		`SELECT id, code, type, marque, serial, statut, localisation, utilisateur, garantie_fin, prix_dh
		 FROM materiels WHERE garantie_fin != '' AND garantie_fin %s date('now', ?) ORDER BY garantie_fin`, cmp)
	rows, err := s.db.QueryContext(ctx, q, fmt.Sprintf("+%d months", months))
	if err != nil {
		return nil, fmt.Errorf("failed to query warranties: %w", err)
	}
	defer rows.Close()

	var out []Materiel
	for rows.Next() {
		var m Materiel
		if err := rows.Scan(&m.ID, &m.Code, &m.Type, &m.Marque, &m.Serial, &m.Statut, &m.Localisation, &m.Utilisateur, &m.GarantieFin, &m.PrixDH); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ---- orders ----

func (s *Store) ListCommandes(ctx context.Context, f CommandeFilter) ([]Commande, error) {
	q := `SELECT id, code, fournisseur, statut, date_commande, montant_dh FROM commandes`
	var conds []string
	var args []any
	if f.Statut != "" {
		conds = append(conds, "statut = ?")
		args = append(args, f.Statut)
	}
	if f.Fournisseur != "" {
		conds = append(conds, "fournisseur LIKE ?")
		args = append(args, "%"+f.Fournisseur+"%")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY date_commande DESC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var out []Commande
	for rows.Next() {
		var c Commande
		if err := rows.Scan(&c.ID, &c.Code, &c.Fournisseur, &c.Statut, &c.DateCommande, &c.MontantDH); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CountCommandes(ctx context.Context, statut string) (int, error) {
	q := `SELECT COUNT(*) FROM commandes`
	var args []any
	if statut != "" {
		q += ` WHERE statut = ?`
		args = append(args, statut)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (s *Store) GetCommandeByCode(ctx context.Context, code string) (*Commande, error) {
	var c Commande
	err := s.db.QueryRowContext(ctx,
		`SELECT id, code, fournisseur, statut, date_commande, montant_dh FROM commandes WHERE code = ?`, code).
		Scan(&c.ID, &c.Code, &c.Fournisseur, &c.Statut, &c.DateCommande, &c.MontantDH)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", code, err)
	}
	return &c, nil
}

func (s *Store) SumMontantCommandes(ctx context.Context, statut string) (float64, error) {
	q := `SELECT COALESCE(SUM(montant_dh), 0) FROM commandes`
	var args []any
	if statut != "" {
		q += ` WHERE statut = ?`
		args = append(args, statut)
	}
	var total float64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum orders: %w", err)
	}
	return total, nil
}

// ---- suppliers ----

func (s *Store) ListFournisseurs(ctx context.Context) ([]Fournisseur, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, nom, ice, rc, telephone, email, adresse FROM fournisseurs ORDER BY nom`)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	defer rows.Close()

	var out []Fournisseur
	for rows.Next() {
		var f Fournisseur
		if err := rows.Scan(&f.ID, &f.Nom, &f.ICE, &f.RC, &f.Telephone, &f.Email, &f.Adresse); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) CountFournisseurs(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fournisseurs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count suppliers: %w", err)
	}
	return n, nil
}

func (s *Store) GetFournisseurByName(ctx context.Context, name string) (*Fournisseur, error) {
	var f Fournisseur
	err := s.db.QueryRowContext(ctx,
		`SELECT id, nom, ice, rc, telephone, email, adresse FROM fournisseurs
		 WHERE LOWER(nom) LIKE ? ORDER BY nom LIMIT 1`, "%"+strings.ToLower(name)+"%").
		Scan(&f.ID, &f.Nom, &f.ICE, &f.RC, &f.Telephone, &f.Email, &f.Adresse)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier %s: %w", name, err)
	}
	return &f, nil
}

// SupplierNames returns the normalized supplier names for the extractor
// lexicon. Callers cache this behind a TTL.
func (s *Store) SupplierNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT LOWER(nom) FROM fournisseurs ORDER BY nom`)
	if err != nil {
		return nil, fmt.Errorf("failed to list supplier names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// ---- users ----

func (s *Store) ListUtilisateurs(ctx context.Context) ([]Utilisateur, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, nom, service FROM utilisateurs ORDER BY nom`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []Utilisateur
	for rows.Next() {
		var u Utilisateur
		if err := rows.Scan(&u.ID, &u.Nom, &u.Service); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUtilisateurByName resolves a possibly partial name to the stored user.
func (s *Store) GetUtilisateurByName(ctx context.Context, name string) (*Utilisateur, error) {
	var u Utilisateur
	err := s.db.QueryRowContext(ctx,
		`SELECT id, nom, service FROM utilisateurs
		 WHERE LOWER(nom) LIKE ? ORDER BY nom LIMIT 1`, "%"+strings.ToLower(name)+"%").
		Scan(&u.ID, &u.Nom, &u.Service)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", name, err)
	}
	return &u, nil
}

// ---- deliveries ----

func (s *Store) ListLivraisons(ctx context.Context, statut string, limit int) ([]Livraison, error) {
	q := `SELECT id, code, commande_code, fournisseur, date_prevue, date_reception, statut FROM livraisons`
	var args []any
	if statut != "" {
		q += ` WHERE statut = ?`
		args = append(args, statut)
	}
	q += ` ORDER BY date_prevue DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	var out []Livraison
	for rows.Next() {
		var l Livraison
		if err := rows.Scan(&l.ID, &l.Code, &l.CommandeCode, &l.Fournisseur, &l.DatePrevue, &l.DateReception, &l.Statut); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) CountLivraisons(ctx context.Context, statut string) (int, error) {
	q := `SELECT COUNT(*) FROM livraisons`
	var args []any
	if statut != "" {
		q += ` WHERE statut = ?`
		args = append(args, statut)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count deliveries: %w", err)
	}
	return n, nil
}

// LateLivraisons returns undelivered shipments whose planned date has passed.
func (s *Store) LateLivraisons(ctx context.Context) ([]Livraison, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, code, commande_code, fournisseur, date_prevue, date_reception, statut
		 FROM livraisons WHERE date_reception = '' AND date_prevue < date('now') ORDER BY date_prevue`)
	if err != nil {
		return nil, fmt.Errorf("failed to list late deliveries: %w", err)
	}
	defer rows.Close()

	var out []Livraison
	for rows.Next() {
		var l Livraison
		if err := rows.Scan(&l.ID, &l.Code, &l.CommandeCode, &l.Fournisseur, &l.DatePrevue, &l.DateReception, &l.Statut); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ---- equipment requests ----

func (s *Store) ListDemandes(ctx context.Context, statut string, limit int) ([]Demande, error) {
	q := `SELECT id, code, utilisateur, objet, statut, date_demande FROM demandes`
	var args []any
	if statut != "" {
		q += ` WHERE statut = ?`
		args = append(args, statut)
	}
	q += ` ORDER BY date_demande DESC`
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var out []Demande
	for rows.Next() {
		var d Demande
		if err := rows.Scan(&d.ID, &d.Code, &d.Utilisateur, &d.Objet, &d.Statut, &d.DateDemande); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) CountDemandes(ctx context.Context, statut string) (int, error) {
	q := `SELECT COUNT(*) FROM demandes`
	var args []any
	if statut != "" {
		q += ` WHERE statut = ?`
		args = append(args, statut)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return n, nil
}

// ---- cross-entity search ----

// Search scans every entity for rows matching any of the terms. It feeds the
// generic fallback and the retrieval step of the LLM tier.
func (s *Store) Search(ctx context.Context, terms []string, limit int) ([]SearchHit, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var hits []SearchHit
	add := func(entity, code, summary string) {
		if len(hits) < limit {
			hits = append(hits, SearchHit{Entity: entity, Code: code, Summary: summary})
		}
	}

	like := make([]string, 0, len(terms))
	args := func(cols int) []any {
		var a []any
		for range cols {
			for _, t := range like {
				a = append(a, t)
			}
		}
		return a
	}
	for _, t := range terms {
		like = append(like, "%"+strings.ToLower(t)+"%")
	}
	cond := func(col string) string {
		parts := make([]string, len(like))
		for i := range like {
			parts[i] = fmt.Sprintf("LOWER(%s) LIKE ?", col)
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	}

	matRows, err := s.db.QueryContext(ctx,
		`SELECT code, type, marque, statut, localisation FROM materiels WHERE `+
			cond("code")+" OR "+cond("type")+" OR "+cond("marque")+" OR "+cond("utilisateur")+
			` LIMIT ?`, append(args(4), limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to search materials: %w", err)
	}
	for matRows.Next() {
		var code, typ, marque, statut, loc string
		if err := matRows.Scan(&code, &typ, &marque, &statut, &loc); err != nil {
			matRows.Close()
			return nil, err
		}
		add("materiel", code, fmt.Sprintf("%s %s (%s), statut %s, %s", typ, marque, code, statut, loc))
	}
	matRows.Close()

	cmdRows, err := s.db.QueryContext(ctx,
		`SELECT code, fournisseur, statut, montant_dh FROM commandes WHERE `+
			cond("code")+" OR "+cond("fournisseur")+` LIMIT ?`, append(args(2), limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to search orders: %w", err)
	}
	for cmdRows.Next() {
		var code, four, statut string
		var montant float64
		if err := cmdRows.Scan(&code, &four, &statut, &montant); err != nil {
			cmdRows.Close()
			return nil, err
		}
		add("commande", code, fmt.Sprintf("commande %s chez %s, statut %s, %.2f DH", code, four, statut, montant))
	}
	cmdRows.Close()

	fRows, err := s.db.QueryContext(ctx,
		`SELECT nom, ice, telephone FROM fournisseurs WHERE `+cond("nom")+` LIMIT ?`,
		append(args(1), limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to search suppliers: %w", err)
	}
	for fRows.Next() {
		var nom, ice, tel string
		if err := fRows.Scan(&nom, &ice, &tel); err != nil {
			fRows.Close()
			return nil, err
		}
		add("fournisseur", nom, fmt.Sprintf("fournisseur %s, ICE %s, tel %s", nom, ice, tel))
	}
	fRows.Close()

	uRows, err := s.db.QueryContext(ctx,
		`SELECT nom, service FROM utilisateurs WHERE `+cond("nom")+" OR "+cond("service")+` LIMIT ?`,
		append(args(2), limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	for uRows.Next() {
		var nom, service string
		if err := uRows.Scan(&nom, &service); err != nil {
			uRows.Close()
			return nil, err
		}
		add("utilisateur", nom, fmt.Sprintf("utilisateur %s, service %s", nom, service))
	}
	uRows.Close()

	return hits, nil
}
