package backend

import (
	"github.com/gogpu/sprite/gfx"
	"github.com/gogpu/sprite/gfx/record"
)

// init registers the recording device on package import. It is always
// available and last in priority.
func init() {
	Register(BackendRecord, func() (gfx.Device, error) {
		return record.New(), nil
	})
}
