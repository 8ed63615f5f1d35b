// Package service orchestrates conversion and querying over the pair
// repository: loading source arrays, validating records, and applying
// query defaults from configuration.
package service
