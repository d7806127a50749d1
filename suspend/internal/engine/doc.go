// Package engine implements the suspension rewrite.
//
// Pipeline:
//  1. Propagate suspending names through aliases and named callers until
//     a full traversal adds nothing
//  2. Freeze the name set and collect matching call sites
//  3. Wrap each site in yield or await in its original slot
//  4. Give every function holding a site the matching coroutine shape
package engine
