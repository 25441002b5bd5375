// Package library computes final placement paths from job metadata and
// relocates downloaded files into the movies/tv directory layout.
package library
