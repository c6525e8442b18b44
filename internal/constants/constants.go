package constants

// Library version triple. Stamped into the metadata tuple of every field
// so a reader can tell which writer produced a file.
const (
	VersionMajor = 0
	VersionMinor = 2
	VersionPatch = 0
)

// On-disk metadata constants
const (
	// MetadataAttrName is the attribute attached to every field dataset.
	MetadataAttrName = "esio_metadata"

	// MetadataLen is the number of integers in the metadata tuple:
	// version triple, layout tag, three global extents, component count.
	MetadataLen = 8

	// MetadataSentinel guards the slot one past the tuple during a probe.
	// If a read overwrites it, the stored attribute is longer than the
	// tuple this library understands.
	MetadataSentinel = int64(-0x6553494f)
)

// Default configuration constants
const (
	// DefaultLayout is the layout tag installed on a fresh handle.
	DefaultLayout = 0

	// HintCollective requests collective buffering from the container
	// driver. Installed on every handle at Init.
	HintCollective = "esio_collective"

	// HintCollectiveOn is the value enabling HintCollective.
	HintCollectiveOn = "true"
)
