package cpu

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Upsample2D performs nearest-neighbor upsampling by an integer scale factor.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, height*scale, width*scale]
func (cpu *CPUBackend) Upsample2D(input *tensor.RawTensor, scale int) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("upsample2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if scale <= 0 {
		panic(fmt.Sprintf("upsample2d: invalid scale factor %d", scale))
	}
	if input.DType() != tensor.Float32 {
		panic(fmt.Sprintf("upsample2d: unsupported dtype %s", input.DType()))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	HOut := H * scale
	WOut := W * scale

	output, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("upsample2d: failed to create output: %v", err))
	}

	inputData := input.AsFloat32()
	outputData := output.AsFloat32()

	for nc := 0; nc < N*C; nc++ {
		src := inputData[nc*H*W : (nc+1)*H*W]
		dst := outputData[nc*HOut*WOut : (nc+1)*HOut*WOut]

		for outH := 0; outH < HOut; outH++ {
			srcRow := src[(outH/scale)*W : (outH/scale+1)*W]
			dstRow := dst[outH*WOut : (outH+1)*WOut]
			for outW := 0; outW < WOut; outW++ {
				dstRow[outW] = srcRow[outW/scale]
			}
		}
	}

	return output
}
