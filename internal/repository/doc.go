// Package repository defines the data access interface for the pair
// table. The sqlite subpackage provides the only implementation.
package repository
