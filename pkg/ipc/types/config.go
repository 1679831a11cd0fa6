package types

// DefaultMaxPayload is the default maximum inbound frame size accepted
// on the streaming transport, in bytes.
const DefaultMaxPayload = 16384

// SSLConfig carries the TLS material for both the streaming transport
// and the HTTP sideband. It is a capability of the transport, not of
// the router itself.
type SSLConfig struct {
	CertPath   string
	KeyPath    string
	PfxPath    string
	Passphrase string
}

// Enabled reports whether any TLS material was configured.
func (s SSLConfig) Enabled() bool {
	return s.CertPath != "" || s.KeyPath != "" || s.PfxPath != ""
}

// Config is the immutable server configuration, built once by
// NewConfig and never mutated afterward.
type Config struct {
	// Port is the bind port. Required.
	Port int

	// Host is the bind address; an empty value binds every interface.
	Host string

	// MaxPayload is the maximum inbound frame size on the streaming
	// transport. The router spills messages larger than this when
	// forwarding.
	MaxPayload int

	// SSL enables TLS on the streaming transport and HTTP endpoints
	// when both CertPath and KeyPath are set. PfxPath and Passphrase
	// are carried but not used: a PFX file alone does not enable TLS.
	SSL SSLConfig

	// Token, when non-empty, is required as the query parameter "t"
	// on every endpoint.
	Token string

	// DevMode gates the GET-based sideband "send" test endpoint. The
	// original source sniffed a process-manager environment variable
	// for this; this implementation takes it as an explicit flag
	// (cmd/ipcserver sets it from DEV_MODE=1).
	DevMode bool
}

// NewConfig validates and normalizes a Config, applying defaults for
// unset optional fields. Port is the only required field.
func NewConfig(c Config) (Config, error) {
	if c.Port <= 0 {
		return Config{}, ErrMissingPort
	}
	if c.MaxPayload <= 0 {
		c.MaxPayload = DefaultMaxPayload
	}
	return c, nil
}
