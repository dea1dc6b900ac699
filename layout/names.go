package layout

import "fmt"

// SampleCountChannel is the channel Blender writes the per-pixel sample
// count to.
const SampleCountChannel = "Count.V"

// BinLayerName returns the layer name of histogram bin i, e.g. "Bin007".
func BinLayerName(i int) string {
	return fmt.Sprintf("Bin%03d", i)
}

// BlenderChannelNames returns the channel names of a Blender histogram with
// nbBins bins, in the order the channels appear in each source pixel.
//
// Multilayer EXR files list channels sorted by name, so every bin arrives
// as A, B, G, R and the sample count comes last. This is the layout
// SeparateBlender expects.
func BlenderChannelNames(nbBins int) []string {
	names := make([]string, 0, 4*nbBins+1)
	for i := range nbBins {
		layer := BinLayerName(i)
		names = append(names, layer+".A", layer+".B", layer+".G", layer+".R")
	}
	return append(names, SampleCountChannel)
}

// HistogramChannelNames returns the channel names of the histogram produced
// by SeparateBlender for nbBins bins.
func HistogramChannelNames(nbBins int) []string {
	names := make([]string, 0, 3*nbBins)
	for i := range nbBins {
		layer := BinLayerName(i)
		for _, off := range abgrToRGB.Src {
			names = append(names, layer+"."+string("ABGR"[off]))
		}
	}
	return names
}
