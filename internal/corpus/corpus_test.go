package corpus

import (
	"bytes"
	"testing"

	"github.com/zstd1/zstdcore"
)

func TestCorpusLoads(t *testing.T) {
	files, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	if len(files) < 4 {
		t.Fatalf("expected at least 4 corpus files, got %d", len(files))
	}
	for _, f := range files {
		if len(f.Data) == 0 {
			t.Errorf("%s inflated to nothing", f.Name)
		}
	}
}

func TestCorpusRoundTrip(t *testing.T) {
	files, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	for _, f := range files {
		t.Run(f.Name, func(t *testing.T) {
			compressed := zstdcore.CompressWithChecksum(nil, f.Data)
			out, err := zstdcore.Decompress(nil, compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(out, f.Data) {
				t.Fatalf("%s: round trip mismatch (%d in, %d out)", f.Name, len(f.Data), len(out))
			}
		})
	}
}

func TestCorpusRoundTripMultiWorker(t *testing.T) {
	files, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	for _, f := range files {
		t.Run(f.Name, func(t *testing.T) {
			p := zstdcore.DefaultMTParams(4)
			p.ChecksumFlag = true
			compressed := zstdcore.CompressMT(nil, f.Data, p)
			out, err := zstdcore.Decompress(nil, compressed)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(out, f.Data) {
				t.Fatalf("%s: round trip mismatch", f.Name)
			}
		})
	}
}
