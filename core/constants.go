package core

const (
	CLIName = "sitemirror"
	AUTHOR  = "@jaeles-project"
	VERSION = "v0.3.0"
)

// DepthVariable is the JS global injected into offline HTML pages. It holds
// how many directories the page sits below the mirror root.
const DepthVariable = "_SiteMirrorUrlDepth"

// DefaultAstroImportDepth bounds recursive module inlining.
const DefaultAstroImportDepth = 10
