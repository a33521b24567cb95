// Package manager owns the ordered block collection and the current block
// pointer.
//
// Every structural edit (insert, remove, move, swap, split, merge, replace,
// clear) goes through a Manager. The collection and the current index are
// changed together under one lock, so a reader never observes a current
// index that points at a removed block.
//
// Once initialized the collection is never empty: removing the last block
// inserts a fresh block of the default tool.
//
// Mutations are announced on an event.Publisher after the lock is released.
// Delivery is fire-and-forget; publish failures are logged and ignored.
//
// Merging is the only asynchronous operation. MergeBlocks returns a
// *MergeFuture that resolves once the target block has absorbed the source
// and the source has been removed.
package manager
