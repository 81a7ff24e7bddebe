package pkg

import "errors"

// Driver errors.
var (
	// ErrInvalidEndpoint indicates an endpoint address that was never
	// allocated, or a duplicate explicit allocation request.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrEndpointOverflow indicates no free endpoint slot is available
	// for the requested direction.
	ErrEndpointOverflow = errors.New("endpoint overflow")

	// ErrBufferOverflow indicates a caller buffer incompatible with the
	// endpoint's configured max packet size (too large for a write, too
	// small for a read).
	ErrBufferOverflow = errors.New("buffer overflow")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")
)
