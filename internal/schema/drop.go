package schema

import "fmt"

// dropAllSQL removes every table and sequence in the public schema.
// Destructive; the CLI requires --force before reaching this.
const dropAllSQL = `
DO $$
DECLARE
    r RECORD;
BEGIN
    FOR r IN (SELECT tablename FROM pg_tables WHERE schemaname = 'public')
    LOOP
        EXECUTE 'DROP TABLE IF EXISTS public.' || quote_ident(r.tablename) || ' CASCADE';
    END LOOP;

    FOR r IN (SELECT sequencename FROM pg_sequences WHERE schemaname = 'public')
    LOOP
        EXECUTE 'DROP SEQUENCE IF EXISTS public.' || quote_ident(r.sequencename) || ' CASCADE';
    END LOOP;
END $$;
`

// DropAll drops every table and sequence in the public schema, including
// the migration ledger. The next Apply starts from a clean slate.
func (a *Applier) DropAll() error {
	a.Log.Warnw("dropping all tables and sequences")
	if _, err := a.DB.Exec(dropAllSQL); err != nil {
		return fmt.Errorf("dropping tables: %w", err)
	}
	return nil
}
