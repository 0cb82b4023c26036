package httpapi

// Config defines HTTP API settings.
type Config struct {
	Addr string
	// MaxImportBytes caps the size of an imported file. Zero uses the default.
	MaxImportBytes int64
	// HistorySize is the number of stream events kept for Last-Event-ID replay.
	HistorySize int
}

const defaultMaxImportBytes = 4 << 20
