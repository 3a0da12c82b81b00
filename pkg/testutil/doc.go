// Package testutil provides helpers shared by astral's tests.
//
// Key components:
//   - FakeShell: records commands instead of spawning processes
//   - CountingFS: wraps a filesystem.FS and counts every call, used to
//     assert that null actions perform no I/O
//   - WriteTree / ReadString: build and inspect file trees in a few lines
//
// All test data should be defined inline, not in external files.
package testutil
