package store

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS materiels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		marque TEXT NOT NULL DEFAULT '',
		serial TEXT NOT NULL DEFAULT '',
		statut TEXT NOT NULL DEFAULT 'disponible',
		localisation TEXT NOT NULL DEFAULT '',
		utilisateur TEXT NOT NULL DEFAULT '',
		garantie_fin TEXT NOT NULL DEFAULT '',
		prix_dh REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS commandes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		fournisseur TEXT NOT NULL DEFAULT '',
		statut TEXT NOT NULL DEFAULT 'en_attente',
		date_commande TEXT NOT NULL DEFAULT '',
		montant_dh REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS fournisseurs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nom TEXT NOT NULL UNIQUE,
		ice TEXT NOT NULL DEFAULT '',
		rc TEXT NOT NULL DEFAULT '',
		telephone TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		adresse TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS livraisons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		commande_code TEXT NOT NULL DEFAULT '',
		fournisseur TEXT NOT NULL DEFAULT '',
		date_prevue TEXT NOT NULL DEFAULT '',
		date_reception TEXT NOT NULL DEFAULT '',
		statut TEXT NOT NULL DEFAULT 'en_cours'
	)`,
	`CREATE TABLE IF NOT EXISTS demandes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		utilisateur TEXT NOT NULL DEFAULT '',
		objet TEXT NOT NULL DEFAULT '',
		statut TEXT NOT NULL DEFAULT 'en_attente',
		date_demande TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS utilisateurs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		nom TEXT NOT NULL UNIQUE,
		service TEXT NOT NULL DEFAULT ''
	)`,
}

// Migrate creates the schema when missing. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// Seed loads a small demo dataset so the CLI answers real questions out of
// the box. Existing rows are left alone (INSERT OR IGNORE).
func (s *Store) Seed(ctx context.Context) error {
	stmts := []struct {
		query string
		args  [][]any
	}{
		{
			`INSERT OR IGNORE INTO fournisseurs (nom, ice, rc, telephone, email, adresse) VALUES (?, ?, ?, ?, ?, ?)`,
			[][]any{
				{"Atlas Informatique", "002234567000089", "RC45821", "0522-44-55-66", "contact@atlasinfo.ma", "12 Bd Zerktouni, Casablanca"},
				{"Maroc Bureau", "001876543000045", "RC12094", "0537-70-11-22", "ventes@marocbureau.ma", "Av. Hassan II, Rabat"},
				{"TechnoPlus", "002998811000032", "RC67313", "0528-82-33-44", "info@technoplus.ma", "Zone industrielle, Agadir"},
			},
		},
		{
			`INSERT OR IGNORE INTO utilisateurs (nom, service) VALUES (?, ?)`,
			[][]any{
				{"karim alaoui", "comptabilite"},
				{"samira bennis", "informatique"},
				{"youssef idrissi", "logistique"},
			},
		},
		{
			`INSERT OR IGNORE INTO materiels (code, type, marque, serial, statut, localisation, utilisateur, garantie_fin, prix_dh) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[][]any{
				{"PC-101", "ordinateur", "Dell", "SN4F7K2P9", "affecte", "bureau 12", "karim alaoui", "2027-03-15", 8500},
				{"PC-102", "ordinateur", "HP", "SNB83JD01", "affecte", "bureau 14", "samira bennis", "2026-11-30", 7900},
				{"PC-123", "ordinateur", "Lenovo", "SNQ77XC45", "disponible", "depot central", "", "2028-01-20", 9200},
				{"IMP-07", "imprimante", "Canon", "SNIMP0007", "en_panne", "salle reunion", "", "2025-06-01", 3100},
				{"SCR-21", "ecran", "Samsung", "SNSCR0021", "disponible", "depot central", "", "2026-09-10", 1450},
				{"SRV-01", "serveur", "Dell", "SNSRV0001", "en_cours", "salle serveurs", "", "2029-05-05", 42000},
			},
		},
		{
			`INSERT OR IGNORE INTO commandes (code, fournisseur, statut, date_commande, montant_dh) VALUES (?, ?, ?, ?, ?)`,
			[][]any{
				{"BC-23", "Atlas Informatique", "approuvee", "2025-05-12", 45800},
				{"BC-24", "Maroc Bureau", "en_attente", "2025-06-02", 12300},
				{"BC-25", "TechnoPlus", "en_attente", "2025-06-15", 27650},
				{"BC-26", "Atlas Informatique", "livree", "2025-03-28", 8900},
			},
		},
		{
			`INSERT OR IGNORE INTO livraisons (code, commande_code, fournisseur, date_prevue, date_reception, statut) VALUES (?, ?, ?, ?, ?, ?)`,
			[][]any{
				{"BL-11", "BC-26", "Atlas Informatique", "2025-04-10", "2025-04-09", "livree"},
				{"BL-12", "BC-23", "Atlas Informatique", "2025-06-20", "", "en_cours"},
				{"BL-13", "BC-24", "Maroc Bureau", "2025-06-25", "", "en_cours"},
			},
		},
		{
			`INSERT OR IGNORE INTO demandes (code, utilisateur, objet, statut, date_demande) VALUES (?, ?, ?, ?, ?)`,
			[][]any{
				{"DEM-31", "youssef idrissi", "ordinateur portable", "en_attente", "2025-06-01"},
				{"DEM-32", "karim alaoui", "deuxieme ecran", "approuvee", "2025-05-20"},
				{"DEM-33", "samira bennis", "imprimante couleur", "rejetee", "2025-05-05"},
			},
		},
	}

	for _, st := range stmts {
		for _, args := range st.args {
			if _, err := s.db.ExecContext(ctx, st.query, args...); err != nil {
				return fmt.Errorf("failed to seed data: %w", err)
			}
		}
	}
	return nil
}
