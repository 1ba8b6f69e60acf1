package processor_test

import (
	"errors"
	"testing"

	"github.com/tetrascience/ts-agent-monitoring/internal/processor"
	"github.com/tetrascience/ts-agent-monitoring/pkg/errclass"
)

// FuzzDecodeBatch checks that arbitrary payloads either decode or fail
// with E_DECODE.
func FuzzDecodeBatch(f *testing.F) {
	f.Add("")
	f.Add("H4sIAAAAAAAA/6uuBQBDv6ajAgAAAA==")
	f.Add("H4sIAAAAAAAA/w==")
	f.Add("not base64 at all")
	f.Add("e30=")

	f.Fuzz(func(t *testing.T, data string) {
		batch, err := processor.DecodeBatch(data)
		if err != nil {
			if !errors.Is(err, errclass.ErrDecode) {
				t.Fatalf("unexpected error class: %v", err)
			}
			return
		}
		if batch == nil {
			t.Fatal("nil batch without error")
		}
	})
}
