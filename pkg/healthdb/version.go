// Package healthdb carries module-level metadata.
package healthdb

// Version is the healthdb release version.
const Version = "0.1.0"
