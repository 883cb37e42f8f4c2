// zstdcat decompresses zstd frames from a file (or stdin) to stdout,
// driving the streaming decoder with small fixed-size buffers so that the
// whole bounded-memory path gets exercised, not just the one-shot API.
// With -z it compresses instead; -T n spreads compression over n workers.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/zstd1/zstdcore"
)

var (
	compress  = flag.Bool("z", false, "compress instead of decompress")
	checksum  = flag.Bool("C", false, "with -z, append a content checksum")
	workers   = flag.Int("T", 0, "with -z, number of worker goroutines (0 = single-threaded)")
	listSkips = flag.Bool("l", false, "list skippable frames found while decoding")
	rawBlock  = flag.Bool("raw-block", false, "treat input as one headerless block body, not a frame")
)

func main() {
	flag.Parse()

	src, err := readInput(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "zstdcat:", err)
		os.Exit(1)
	}

	if *rawBlock {
		if *compress {
			body := zstdcore.CompressBlock(nil, src)
			if body == nil {
				fmt.Fprintln(os.Stderr, "zstdcat: chunk not expressible as a compressed block; store it raw")
				os.Exit(1)
			}
			os.Stdout.Write(body)
			return
		}
		out, err := zstdcore.NewBlockDCtx().DecompressBlock(nil, src)
		if err != nil {
			fmt.Fprintln(os.Stderr, "zstdcat:", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	if *compress {
		cctx := zstdcore.NewCCtx()
		cctx.SetChecksumFlag(*checksum)
		if err := cctx.SetNbWorkers(*workers); err != nil {
			fmt.Fprintln(os.Stderr, "zstdcat:", err)
			os.Exit(1)
		}
		os.Stdout.Write(cctx.Compress2(nil, src))
		return
	}

	dctx := zstdcore.NewDCtx()
	sd := zstdcore.NewStreamDCtx(dctx)
	in := &zstdcore.InBuffer{Src: src}
	chunk := make([]byte, 64*1024)
	for {
		out := &zstdcore.OutBuffer{Dst: chunk}
		beforeIn := in.Pos
		_, err := sd.DecompressStream(out, in)
		if err != nil {
			fmt.Fprintln(os.Stderr, "zstdcat:", err)
			os.Exit(1)
		}
		if out.Pos > 0 {
			os.Stdout.Write(chunk[:out.Pos])
		}
		if out.Pos == 0 && in.Pos == beforeIn {
			break
		}
	}

	if *listSkips {
		for _, sf := range dctx.SkippableFrames {
			fmt.Fprintf(os.Stderr, "skippable frame: magic nibble %X, %d bytes\n", sf.Magic&0xF, sf.Length)
		}
	}
}

func readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}
