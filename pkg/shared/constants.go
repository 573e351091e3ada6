package shared

import "time"

// TLS certificate constants, used when generating a self-signed fallback
// certificate.
const (
	TLSKeyBits         = 2048
	CertValidityPeriod = 365 * 24 * time.Hour
)

// QUIC transport defaults, per the tunnel's bring-up sequence: 1MiB
// stream/connection flow-control windows and up to 1024 concurrent
// bidirectional streams.
const (
	QUICStreamReceiveWindow     = 1 * 1024 * 1024
	QUICConnectionReceiveWindow = 1 * 1024 * 1024
	QUICMaxIncomingStreams      = 1024
	QUICHandshakeTimeout        = 10 * time.Second
)

// CopyBufferSize is the buffer size used by ByteCopier for each direction of
// a tunneled connection.
const CopyBufferSize = 32 * 1024

// AccessListenerQueueDepth bounds how many accepted-but-undelivered sockets
// an AccessListener holds before the producer starts blocking.
const AccessListenerQueueDepth = 4

// AccessListenerSendTimeout is how long the AccessListener's accept loop
// waits to hand off a socket before dropping it.
const AccessListenerSendTimeout = 3 * time.Second
