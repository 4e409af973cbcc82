package cpu

import (
	"fmt"

	"github.com/JeiKeiLim/torch-ignite/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [batch, in_channels, height, width]
// Kernel shape: [out_channels, in_channels, kernel_h, kernel_w]
// Output shape: [batch, out_channels, out_h, out_w]
//
// Where:
//
//	out_h = (height + 2*padding - kernel_h) / stride + 1
//	out_w = (width + 2*padding - kernel_w) / stride + 1
//
// Im2col converts the convolution into a matrix multiplication, which is
// cache-friendly and reuses the matmul kernel.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kernelShape)))
	}
	if input.DType() != tensor.Float32 || kernel.DType() != tensor.Float32 {
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	N := inputShape[0]
	CIn := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	CInK := kernelShape[1]
	KH := kernelShape[2]
	KW := kernelShape[3]

	if CIn != CInK {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", CIn, CInK))
	}

	HOut := (H+2*padding-KH)/stride + 1
	WOut := (W+2*padding-KW)/stride + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", HOut, WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, COut, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	inputData := input.AsFloat32()
	kernelData := kernel.AsFloat32()
	outputData := output.AsFloat32()

	// Im2col: [N * H_out * W_out, C_in * K_h * K_w]
	colWidth := CIn * KH * KW
	colHeight := N * HOut * WOut
	colBuf := make([]float32, colHeight*colWidth)
	im2col(colBuf, inputData, N, CIn, H, W, KH, KW, HOut, WOut, stride, padding)

	// kernelData is already [C_out, C_in*K_h*K_w] in row-major layout.
	// result[c, j] = sum_k kernel[c, k] * colBuf[j, k]
	scratch := make([]float32, len(outputData))
	for c := 0; c < COut; c++ {
		kRow := kernelData[c*colWidth : (c+1)*colWidth]
		for j := 0; j < colHeight; j++ {
			col := colBuf[j*colWidth : (j+1)*colWidth]
			sum := float32(0.0)
			for k := range kRow {
				sum += kRow[k] * col[k]
			}
			scratch[c*colHeight+j] = sum
		}
	}

	// Rearrange from [C_out, N*H_out*W_out] to [N, C_out, H_out, W_out].
	plane := HOut * WOut
	for n := 0; n < N; n++ {
		for c := 0; c < COut; c++ {
			src := scratch[c*colHeight+n*plane : c*colHeight+(n+1)*plane]
			dst := outputData[(n*COut+c)*plane : (n*COut+c+1)*plane]
			copy(dst, src)
		}
	}

	return output
}

// im2col transforms the input tensor into a column matrix where each row
// corresponds to one output position and each column to one kernel weight.
func im2col(colBuf, inputData []float32, N, C, H, W, KH, KW, HOut, WOut, stride, padding int) {
	colWidth := C * KH * KW
	colIdx := 0

	for n := 0; n < N; n++ {
		for outH := 0; outH < HOut; outH++ {
			for outW := 0; outW < WOut; outW++ {
				hStart := outH*stride - padding
				wStart := outW*stride - padding
				bufIdx := colIdx * colWidth

				for c := 0; c < C; c++ {
					for kh := 0; kh < KH; kh++ {
						for kw := 0; kw < KW; kw++ {
							h := hStart + kh
							w := wStart + kw

							if h >= 0 && h < H && w >= 0 && w < W {
								colBuf[bufIdx] = inputData[n*C*H*W+c*H*W+h*W+w]
							} else {
								colBuf[bufIdx] = 0.0 // zero padding
							}
							bufIdx++
						}
					}
				}
				colIdx++
			}
		}
	}
}
