package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/esimov/lkflow"
	"github.com/esimov/lkflow/utils"
)

const HelpBanner = `
┬  ┬┌─┌─┐┬  ┌─┐┬ ┬
│  ├┴┐├┤ │  │ ││││
┴─┘┴ ┴└  ┴─┘└─┘└┴┘

Lucas-Kanade optical flow estimation library.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source       = flag.String("in", pipeName, "Source (a directory of frames or a comma separated frame pair)")
	destination  = flag.String("out", pipeName, "Destination")
	eigThreshold = flag.Float64("eig", 0.0025, "Eigenvalue threshold of the reliability gate")
	normalFlow   = flag.Bool("normal", false, "Estimate the normal flow of edge only pixels")
	renderMode   = flag.String("render", "direction", "Render mode (magnitude|direction)")
	overlay      = flag.Bool("overlay", false, "Overlay the rendered flow on the source frame")
	blendMode    = flag.String("blend", "screen", "Overlay blend mode (normal|darken|lighten|multiply|screen|overlay)")
	newWidth     = flag.Int("width", 0, "New width")
	newHeight    = flag.Int("height", 0, "New height")
	tSigma       = flag.Float64("tsigma", 0, "Temporal kernel sigma")
	tRadius      = flag.Int("tradius", 0, "Temporal kernel radius")
	sSigma       = flag.Float64("ssigma", 0, "Spatial kernel sigma")
	sRadius      = flag.Int("sradius", 0, "Spatial kernel radius")
	wSigma       = flag.Float64("wsigma", 0, "Aggregation window sigma")
	wRadius      = flag.Int("wradius", 0, "Aggregation window radius")
	workers      = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *source == pipeName {
		flag.Usage()
		log.Fatal(fmt.Sprintf("%s%s",
			utils.DecorateText("\nPlease provide a frame directory or a comma separated frame pair!", utils.ErrorMessage),
			utils.DefaultColor,
		))
	}

	proc := &lkflow.Processor{
		EigThreshold:   *eigThreshold,
		NormalFlow:     *normalFlow,
		TemporalSigma:  *tSigma,
		TemporalRadius: *tRadius,
		SpatialSigma:   *sSigma,
		SpatialRadius:  *sRadius,
		WindowSigma:    *wSigma,
		WindowRadius:   *wRadius,
		NewWidth:       *newWidth,
		NewHeight:      *newHeight,
		RenderMode:     lkflow.RenderMode(*renderMode),
		Overlay:        *overlay,
		BlendMode:      *blendMode,
	}

	proc.Execute(&lkflow.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Workers:  *workers,
	})
}
