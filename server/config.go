package server

// Config is the HTTP server configuration.
type Config struct {
	// Address to listen on (e.g., ":3001")
	ListenAddr string

	// CORSOrigins lists allowed browser origins; "*" allows any.
	CORSOrigins []string

	// MaxUploadBytes caps the size of an uploaded PDF.
	MaxUploadBytes int64
}

// DefaultMaxUploadBytes is the PDF upload limit when none is configured.
const DefaultMaxUploadBytes = 10 << 20
