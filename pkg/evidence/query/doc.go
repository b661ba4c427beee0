// Package query validates and defaults audit record queries issued from
// the command line.
package query
