package brc8888

const (
	Version          = "v0.1.0"
	ClientVersion    = "brc8888-indexer/" + Version
	DBVersion        = 1
	EventHashVersion = 1
)

const (
	defaultCheckpointInterval = 1000
	defaultBatchSize          = 500
)
