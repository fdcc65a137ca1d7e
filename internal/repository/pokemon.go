package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/marlonjr14/pokemon-api/internal/models"
)

const selectPokemon = `SELECT id, name, base_experience, height, weight FROM pokemon`

// ListPokemon returns catalog records ordered by id. A non-blank filter keeps
// only names containing it.
func (r *Repository) ListPokemon(ctx context.Context, nameFilter string) ([]models.Pokemon, error) {
	query := selectPokemon
	var args []any
	if filter := strings.TrimSpace(nameFilter); filter != "" {
		query += ` WHERE name LIKE $1`
		args = append(args, "%"+filter+"%")
	}
	query += ` ORDER BY id`

	pokemons := make([]models.Pokemon, 0)
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list pokemon: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var p models.Pokemon
			if err := rows.Scan(&p.ID, &p.Name, &p.BaseExperience, &p.Height, &p.Weight); err != nil {
				return fmt.Errorf("failed to scan pokemon: %w", err)
			}
			pokemons = append(pokemons, p)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to list pokemon: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pokemons, nil
}

// GetPokemon retrieves a single record by id
func (r *Repository) GetPokemon(ctx context.Context, id int64) (*models.Pokemon, error) {
	p := &models.Pokemon{}
	err := r.withConn(ctx, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, selectPokemon+` WHERE id = $1`, id).
			Scan(&p.ID, &p.Name, &p.BaseExperience, &p.Height, &p.Weight)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get pokemon: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePokemon inserts a record and replaces p with the row as stored,
// including the id assigned by the database
func (r *Repository) CreatePokemon(ctx context.Context, p *models.Pokemon) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		query := `
		INSERT INTO pokemon (name, base_experience, height, weight)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, base_experience, height, weight`
		err := conn.QueryRowContext(ctx, query, p.Name, p.BaseExperience, p.Height, p.Weight).
			Scan(&p.ID, &p.Name, &p.BaseExperience, &p.Height, &p.Weight)
		if err != nil {
			return fmt.Errorf("failed to create pokemon: %w", err)
		}
		return nil
	})
}

// UpdatePokemon applies the non-nil fields of patch. Existence is decided by
// the number of affected rows, not by a prior lookup.
func (r *Repository) UpdatePokemon(ctx context.Context, id int64, patch models.PokemonFields) error {
	if patch.Empty() {
		return fmt.Errorf("failed to update pokemon: no fields to update")
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.BaseExperience != nil {
		add("base_experience", *patch.BaseExperience)
	}
	if patch.Height != nil {
		add("height", *patch.Height)
	}
	if patch.Weight != nil {
		add("weight", *patch.Weight)
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE pokemon SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	return r.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update pokemon: %w", err)
		}
		return checkAffected(res)
	})
}

// DeletePokemon removes a record by id
func (r *Repository) DeletePokemon(ctx context.Context, id int64) error {
	return r.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM pokemon WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete pokemon: %w", err)
		}
		return checkAffected(res)
	})
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
