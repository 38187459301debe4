// Package cache implements the budgeted, lockable store of device resources
// used by the gr drawing context.
//
// # Overview
//
// [ResourceCache] owns every cached texture and stencil buffer. Callers
// acquire entries as [Token] values through FindAndLock, CreateAndLock or
// AddAndLock and give them back with Unlock. A locked entry is never
// evicted. Unlocked entries sit on an LRU list ordered by unlock time and are
// evicted oldest first whenever the cache exceeds its [Budget].
//
// Two typed views sit on top of the same store:
//
//   - [ScratchMatcher] hands out content-free textures by descriptor, either
//     exactly matching or approximately (at least as large).
//   - [StencilCache] shares stencil buffers between render targets of the
//     same size, counting attachments.
//
// # Tokens
//
// A Token is an index and generation into the cache's entry arena. The zero
// Token is empty. Tokens outlive the entries they name safely: after an
// eviction or FreeAll the generation no longer matches and the token resolves
// to nothing.
//
// # Thread Safety
//
// ResourceCache is not safe for concurrent use. It is driven by the single
// goroutine that owns the device.
//
// # Debug checks
//
// Building with the grdebug tag turns misuse (unbalanced Unlock, stale
// tokens) into panics. Without it misuse is logged and ignored.
package cache
