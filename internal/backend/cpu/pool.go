package cpu

import (
	"fmt"
	"math"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// MaxPool2D performs 2D max pooling.
//
// Input shape:  [batch, channels, height, width]
// Output shape: [batch, channels, out_height, out_width]
//
// Where:
//
//	out_height = (height + 2*padding - kernelSize) / stride + 1
//	out_width  = (width + 2*padding - kernelSize) / stride + 1
//
// Padded positions are ignored when taking the window maximum, so a fully
// padded window never occurs for valid kernel/stride/padding combinations.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	if len(inputShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %dD", len(inputShape)))
	}
	if input.DType() != tensor.Float32 {
		panic(fmt.Sprintf("maxpool2d: unsupported dtype %s", input.DType()))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]

	if kernelSize <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel size %d", kernelSize))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid stride %d", stride))
	}
	if padding < 0 || padding > kernelSize/2 {
		panic(fmt.Sprintf("maxpool2d: invalid padding %d for kernel %d", padding, kernelSize))
	}

	HOut := (H+2*padding-kernelSize)/stride + 1
	WOut := (W+2*padding-kernelSize)/stride + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid output dimensions %dx%d (kernel=%d, stride=%d, input=%dx%d)",
			HOut, WOut, kernelSize, stride, H, W))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut}, input.DType(), cpu.Device())
	if err != nil {
		panic(fmt.Sprintf("maxpool2d: failed to create output: %v", err))
	}

	inputData := input.AsFloat32()
	outputData := output.AsFloat32()

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			channelOffset := (n*C + c) * H * W
			channelData := inputData[channelOffset : channelOffset+H*W]

			for outH := 0; outH < HOut; outH++ {
				hStart := outH*stride - padding

				for outW := 0; outW < WOut; outW++ {
					wStart := outW*stride - padding
					maxVal := float32(math.Inf(-1))

					for kh := 0; kh < kernelSize; kh++ {
						h := hStart + kh
						if h < 0 || h >= H {
							continue
						}
						rowData := channelData[h*W : (h+1)*W]

						for kw := 0; kw < kernelSize; kw++ {
							w := wStart + kw
							if w < 0 || w >= W {
								continue
							}
							if rowData[w] > maxVal {
								maxVal = rowData[w]
							}
						}
					}

					outputData[((n*C+c)*HOut+outH)*WOut+outW] = maxVal
				}
			}
		}
	}

	return output
}
