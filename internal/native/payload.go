package native

import (
	"embed"
	"errors"
	"io/fs"
)

const payloadName = "payload/libuptech.so"

// embeddedPayload holds the vendor module. Only README.md is checked in;
// the .so is dropped into internal/native/payload/ by the board build.
//
//go:embed payload
var embeddedPayload embed.FS

// Payload returns the embedded vendor module bytes.
func Payload() ([]byte, error) {
	data, err := embeddedPayload.ReadFile(payloadName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrPayloadMissing
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrPayloadMissing
	}
	return data, nil
}
