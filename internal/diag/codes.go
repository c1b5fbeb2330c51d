package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// alias table
	AliasInfo           Code = 1000
	AliasInvalidPattern Code = 1001
	AliasUnresolved     Code = 1002

	// rewrite stages
	RewriteInfo            Code = 2000
	RewriteInlineRead      Code = 2001
	RewritePlatformListing Code = 2002
	RewriteTemplateRead    Code = 2003
	RewriteFailed          Code = 2004

	// minification
	MinifyInfo    Code = 3000
	MinifyFailed  Code = 3001
	MinifySlow    Code = 3002
	MinifyBadMap  Code = 3003
	MinifyNoChunk Code = 3004

	// host bundler
	HostInfo    Code = 4000
	HostWarning Code = 4001
	HostError   Code = 4002
	HostWrite   Code = 4003

	// project manifest
	ProjectInfo    Code = 5000
	ProjectInvalid Code = 5001

	// transform cache
	CacheInfo    Code = 6000
	CacheCorrupt Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	AliasInfo:           "Alias information",
	AliasInvalidPattern: "Invalid alias pattern",
	AliasUnresolved:     "Alias replacement could not be resolved",

	RewriteInfo:            "Rewrite information",
	RewriteInlineRead:      "Inlined file could not be read",
	RewritePlatformListing: "Platform directory could not be listed",
	RewriteTemplateRead:    "Template asset could not be read",
	RewriteFailed:          "Rewrite stage failed",

	MinifyInfo:    "Minify information",
	MinifyFailed:  "Minification failed",
	MinifySlow:    "Minification was slow",
	MinifyBadMap:  "Minifier returned an invalid source map",
	MinifyNoChunk: "Bundle produced no chunk",

	HostInfo:    "Bundler information",
	HostWarning: "Bundler warning",
	HostError:   "Bundler error",
	HostWrite:   "Artifact could not be written",

	ProjectInfo:    "Project information",
	ProjectInvalid: "Invalid project manifest",

	CacheInfo:    "Cache information",
	CacheCorrupt: "Cache entry is corrupt",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("ALS%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RWR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("MIN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("HST%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("CCH%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
