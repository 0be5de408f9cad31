// Package fs provides the filesystem seam used by the blob store and the version
// index.
//
//   - [File]: an open file with read/write/sync capabilities
//   - [FileSystem]: open, remove, rename, stat, mkdir and readdir
//
// # Implementations
//
//   - [LocalFS]: production implementation on top of the os package
//   - [FaultyFS]: test utility that injects I/O failures by filename pattern
//
// Tests inject [FaultyFS] to drive components into their IOFailure paths:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".tgz", fs.Fault{FailOnSync: true})
//	store, err := blobstore.NewLocalStore(dir, func(o *blobstore.Options) { o.FileSystem = ffs })
//
// The package has no context.Context parameters. Local filesystem calls are not
// interruptible at the syscall level.
package fs
