// Package datastore persists astral's bookkeeping in the data directory.
//
// Two YAML documents live there:
//
//	created_files.yml  files compiled, copied or symlinked by each module,
//	                   with their content path, creation method and MD5 hash
//	setup.yml          on_setup actions already executed by each module
//
// Both are read once on construction and rewritten only when they change.
package datastore
