/*
Package storage provides BoltDB-backed persistence for the state a unit keeps
between hook invocations.

Every hook runs as a fresh short-lived process, so anything the convergence
engine needs to remember from one pass to the next lives in a single bbolt
file (state_db in the configuration, /var/lib/hacluster/state.db by default).

# Buckets

	config         previously applied configuration values (maintenance-mode)
	fingerprints   hash of the last applied (agent, params) per primitive
	migrations     one-shot migrations that have completed (maas-dns)

Values in the fingerprints and migrations buckets are JSON documents; the
config bucket stores raw strings.

# Transaction Model

Reads use db.View() and writes db.Update(). BoltDB holds an exclusive file
lock while the database is open, so two hooks racing on the same unit
serialize on NewBoltStore (bounded by a 5 second timeout).

# Usage

	store, err := storage.NewBoltStore(cfg.StateDB)
	if err != nil {
		return err
	}
	defer store.Close()

	prev, found, err := store.PreviousValue("maintenance-mode")

	fp, err := store.GetFingerprint("res_ks_vip")
	if errors.Is(err, storage.ErrNotFound) {
		// never applied
	}

	err = store.MarkMigration("maas-dns")

# Data Integrity

Deleting the file loses no cluster state: fingerprints only suppress
redundant updates and are rebuilt on the next pass, and the DNS migration
re-probes the agent on disk.
*/
package storage
