// Package timeline defines the data model the export engine consumes: an
// ordered set of tracks holding positioned elements, a media catalog mapping
// element references to filesystem paths or in-memory resources, effect
// definitions, and target export settings.
//
// The package also loads timeline project documents from YAML. Validation
// here covers structural invariants only (trim bounds, dangling references);
// strategy decisions belong to the plan package.
package timeline
