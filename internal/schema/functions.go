package schema

import (
	"fmt"
)

// cleanFunctionsSQL drops every user-defined function in the public schema
// before redeploying, so renamed or re-signatured functions do not leave
// stale definitions with conflicting ownership behind.
const cleanFunctionsSQL = `
DO $$
DECLARE
    r RECORD;
BEGIN
    FOR r IN (
        SELECT p.proname,
               pg_get_function_identity_arguments(p.oid) AS identity_args
        FROM pg_proc p
        JOIN pg_namespace n ON p.pronamespace = n.oid
        WHERE n.nspname = 'public'
          AND p.prokind = 'f'
    )
    LOOP
        EXECUTE 'DROP FUNCTION IF EXISTS public.' || quote_ident(r.proname)
            || '(' || r.identity_args || ') CASCADE';
    END LOOP;
END $$;
`

// listFunctionsSQL reports the user-defined functions outside the system
// schemas.
const listFunctionsSQL = `
SELECT n.nspname,
       p.proname,
       pg_get_function_arguments(p.oid),
       pg_get_function_result(p.oid)
FROM pg_proc p
JOIN pg_namespace n ON p.pronamespace = n.oid
WHERE n.nspname NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
  AND n.nspname NOT LIKE 'pg_temp_%'
  AND n.nspname NOT LIKE 'pg_toast_temp_%'
ORDER BY n.nspname, p.proname
`

// FunctionInfo describes one deployed database function.
type FunctionInfo struct {
	Schema     string
	Name       string
	Arguments  string
	ReturnType string
}

// DeployFunctions drops all user-defined functions and recreates them from
// the embedded function files. Each file is executed whole: plpgsql bodies
// are dollar-quoted and must not be split on semicolons.
func (a *Applier) DeployFunctions() error {
	if _, err := a.DB.Exec(cleanFunctionsSQL); err != nil {
		return fmt.Errorf("cleaning existing functions: %w", err)
	}

	files, err := sortedFiles(functionFS, "functions")
	if err != nil {
		return err
	}

	a.Log.Infow("deploying functions", "files", len(files))

	for _, name := range files {
		content, err := functionFS.ReadFile("functions/" + name)
		if err != nil {
			return fmt.Errorf("reading function file %s: %w", name, err)
		}
		if _, err := a.DB.Exec(string(content)); err != nil {
			return fmt.Errorf("deploying function file %s: %w", name, err)
		}
		a.Log.Infow("deployed function file", "file", name)
	}

	return nil
}

// ListFunctions returns the user-defined functions currently in the
// database.
func (a *Applier) ListFunctions() ([]FunctionInfo, error) {
	rows, err := a.DB.Query(listFunctionsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing functions: %w", err)
	}
	defer rows.Close()

	var funcs []FunctionInfo
	for rows.Next() {
		var f FunctionInfo
		if err := rows.Scan(&f.Schema, &f.Name, &f.Arguments, &f.ReturnType); err != nil {
			return nil, fmt.Errorf("scanning function row: %w", err)
		}
		funcs = append(funcs, f)
	}
	return funcs, rows.Err()
}

// FunctionFiles returns the embedded function filenames in deploy order.
func FunctionFiles() ([]string, error) {
	return sortedFiles(functionFS, "functions")
}
