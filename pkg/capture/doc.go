// Package capture flattens a live node tree and the trees it binds into a
// [document.Document].
//
// The flattener walks nodes depth first. Whenever a node binds another
// tree, through any tree-reference property, that tree is flattened first,
// so the resulting group order is a valid linearization: every group
// appears before the groups whose nodes use it, and "main" is last.
package capture
