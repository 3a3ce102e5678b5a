// Package document defines the portable node document and its JSON form.
//
// # Layout
//
// A [Document] is a [Header] plus a set of flattened [Group]s keyed by name.
// The header's GroupOrder lists every group so that each group appears
// after every group its nodes bind; the root graph is always named "main"
// and comes last. Restoring groups in that order means a group node can
// bind its sub-graph as soon as it is created.
//
// # Wire Format
//
// Documents are JSON files with the ".bnodes" extension:
//
//	{
//	  "header": {
//	    "version": 1,
//	    "id": "5f0c...",
//	    "graph_kind": "shader",
//	    "path_mode": "relative",
//	    "dependencies": [["image", "wood.png", "wood.png"]],
//	    "group_order": ["Fresnel Mix", "main"],
//	    ...
//	  },
//	  "groups": {
//	    "main": {
//	      "nodes": [
//	        {"name": "Mix", "type": "ShaderNodeMixRGB",
//	         "attributes": ["location", [120.0, 40.0], "blend_type", "MULTIPLY"],
//	         "inputs": [{"index": 0, "type": "NodeSocketFloatFactor", "values": {"default_value": 0.5}}]}
//	      ],
//	      "links": [["Image Texture", 0, "Mix", 1]]
//	    }
//	  }
//	}
//
// Attribute lists are flat [key, value, ...] arrays in capture order.
// Values are typed by shape: floats always carry a decimal point, integers
// never do, curve mappings are objects with a "curves" member and color
// ramps are objects with an "elements" member. Tree, node and asset
// references are plain strings; the restoring side recovers their kind
// from the node type's schema.
//
// # Files
//
// [ExportJSON] publishes atomically through a temporary file and a rename.
// [ImportJSON] reads a single file and [ImportDir] reads every document in
// a folder. Neither validates; call [Validate] before restoring.
package document
