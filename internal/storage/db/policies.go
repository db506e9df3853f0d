package db

import (
	"database/sql"
	"errors"
	"fmt"

	"smm/internal/domain"
)

// SetUpdatePolicy stores the update policy for a mod id.
func (d *DB) SetUpdatePolicy(modID string, policy domain.UpdatePolicy) error {
	_, err := d.Exec(`
		INSERT INTO update_policies (mod_id, policy)
		VALUES (?, ?)
		ON CONFLICT(mod_id) DO UPDATE SET
			policy = excluded.policy,
			updated_at = CURRENT_TIMESTAMP
	`, domain.CanonicalID(modID), policy.String())
	if err != nil {
		return fmt.Errorf("saving update policy: %w", err)
	}
	return nil
}

// GetUpdatePolicy returns the stored policy for a mod id, or the default
// when none was ever set.
func (d *DB) GetUpdatePolicy(modID string) (domain.UpdatePolicy, error) {
	var s string
	err := d.QueryRow(`
		SELECT policy FROM update_policies WHERE mod_id = ?
	`, domain.CanonicalID(modID)).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UpdateNotify, nil
	}
	if err != nil {
		return domain.UpdateNotify, fmt.Errorf("querying update policy: %w", err)
	}

	policy, ok := domain.ParseUpdatePolicy(s)
	if !ok {
		return domain.UpdateNotify, fmt.Errorf("unknown update policy %q for %s", s, modID)
	}
	return policy, nil
}

// UpdatePolicies returns every stored policy keyed by canonical mod id.
func (d *DB) UpdatePolicies() (map[string]domain.UpdatePolicy, error) {
	rows, err := d.Query(`SELECT mod_id, policy FROM update_policies`)
	if err != nil {
		return nil, fmt.Errorf("querying update policies: %w", err)
	}
	defer rows.Close()

	policies := make(map[string]domain.UpdatePolicy)
	for rows.Next() {
		var id, s string
		if err := rows.Scan(&id, &s); err != nil {
			return nil, fmt.Errorf("scanning update policy: %w", err)
		}
		if policy, ok := domain.ParseUpdatePolicy(s); ok {
			policies[id] = policy
		}
	}
	return policies, rows.Err()
}

// RemoveUpdatePolicy drops the stored policy for a mod id.
func (d *DB) RemoveUpdatePolicy(modID string) error {
	if _, err := d.Exec(`DELETE FROM update_policies WHERE mod_id = ?`, domain.CanonicalID(modID)); err != nil {
		return fmt.Errorf("removing update policy: %w", err)
	}
	return nil
}
