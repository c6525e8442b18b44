package esio

import "github.com/Tiancheng-Luo/go-esio/internal/constants"

// Re-export constants for public API
const (
	VersionMajor = constants.VersionMajor
	VersionMinor = constants.VersionMinor
	VersionPatch = constants.VersionPatch

	DefaultLayout  = constants.DefaultLayout
	MetadataName   = constants.MetadataAttrName
	HintCollective = constants.HintCollective
)
