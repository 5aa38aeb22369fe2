/*
Package lkflow implements dense optical flow estimation using the
Lucas-Kanade method with derivative of Gaussian filtering. The flow is
computed over a short temporal window of grayscale frames: the frames are
smoothed and differentiated with separable Gaussian kernels, aggregated
into a per pixel 2x2 structure tensor and solved pixel by pixel in closed
form. Pixels without enough gradient structure produce a zero flow vector.

The package provides a command line interface, supporting various flags for the flow estimation options.
To check the supported commands type:

	$ lkflow --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/lkflow"
	)

	func main() {
		p := &lkflow.Processor{
			// Initialize struct variables
		}

		if err := p.Process(prev, curr, out); err != nil {
			fmt.Printf("Error computing the optical flow: %s", err.Error())
		}
	}
*/
package lkflow
