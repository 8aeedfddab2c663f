package constant

const (
	AppName = "capekit"

	// DefaultStorageDir is where CAPEv2 keeps one directory per analysis task.
	DefaultStorageDir = "/opt/CAPEv2/storage/analyses"

	ReportsDirName       = "reports"
	FilesDirName         = "files"
	SelfExtractedDirName = "selfextracted"
	PcapFileName         = "dump.pcap"

	// SampleExt is appended to every digest-derived sample name.
	SampleExt = ".exe"
)

const (
	EnvStorageDir = "CAPEKIT_STORAGE_DIR"
	EnvJournal    = "CAPEKIT_JOURNAL"
)
