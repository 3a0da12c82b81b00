// Package filesystem provides the filesystem seam used by the path resolver
// and the file actions.
//
// NewOS is the production implementation. NewAferoFS adapts any afero.Fs,
// which lets resolver tests run against an in-memory tree.
package filesystem
