// Package model defines the core data types shared across shardscan:
// schemas, typed columns and positional rows.
package model
