// Package assets manages the external files a node graph depends on.
//
// During capture a [Collector] receives every asset reference the attribute
// codec meets. [Finalize] turns the collected entries into the document's
// dependency manifest according to the [PathMode]: absolute mode keeps full
// paths, relative mode stores bare file names and returns the files that
// must be staged next to the document with [CopyInto].
//
// During restore [Resolve] loads every dependency the target library does
// not hold yet. Load failures are counted and reported once; they never
// abort the restore.
package assets
