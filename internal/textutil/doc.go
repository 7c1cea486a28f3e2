// Package textutil sanitizes user-supplied names for safe filesystem use.
// Timeline documents and output paths may carry characters that are legal in
// YAML but not in file names.
package textutil
