// Package render draws captured node documents.
//
// [ToDOT] turns one group of a document into a Graphviz digraph: nodes are
// boxes labelled with name and type, frames become clusters around their
// children, and group nodes name the group they bind. [RenderSVG] lays the
// graph out with the embedded Graphviz, and [ToPDF] and [ToPNG] convert the
// SVG with the external rsvg-convert tool.
//
//	dot, err := render.ToDOT(doc, "main", render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//	pdf, err := render.ToPDF(ctx, svg)
package render
