// Package types defines the configuration documents, persisted row types,
// and standard error values shared by the healthdb provisioning components
// (schema applier, migration runner, seed loader, permission manager,
// exclusion calendar).
package types
