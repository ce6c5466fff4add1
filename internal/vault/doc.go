// Package vault implements the storage core of the FileShelf backend.
//
// A Vault is a directory tree confined to a single storage root with a
// global byte quota. The package is organized into focused modules:
//   - paths: name validation and root-confined path resolution
//   - quota: whole-tree usage accounting and admission checks
//   - listing: directory listings (directories first, then files)
//   - archive: transient zip/tar archives of directory subtrees
//   - operations: create, delete, upload and download orchestration
//   - search: glob search over the vault
//
// All operations:
//   - Resolve caller-supplied relative paths against the storage root
//   - Reject names that could escape the root or carry blocked extensions
//   - Admit writes against the quota before touching the tree
//   - Return sentinel errors (errors.Is) for every failure class
//
// Example Usage:
//
//	v, err := vault.New(cfg.Root, cfg.QuotaBytes, logger)
//	err = v.Create(ctx, "docs", "notes.txt", []byte("hello"))
package vault
