// Package restore rebuilds live node trees from a [document.Document].
//
// Groups are recreated in the document's group order. Within a group,
// nodes are created and configured first; node references such as frame
// parents are resolved in a second pass once every node of the group
// exists. A parent assignment keeps the child's editor-space position, so
// the child's recorded relative location is reapplied afterwards using
// [Compensate].
//
// Problems local to a node, attribute, socket or link never abort a
// restore. They are returned as warnings in [Result].
package restore
