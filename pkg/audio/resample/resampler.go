// ABOUTME: Linear resampler and channel remixer for S16LE streams
// ABOUTME: Converts decoded audio to the negotiated rate and channel layout
package resample

import (
	"github.com/deepsentinel/baresip/pkg/audio"
)

// Resampler performs linear interpolation to convert between sample rates.
// It keeps the last input frame between calls so chunk boundaries are seamless.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64 // read position relative to the carried frame
	lastFrame  []int16 // one sample per channel
	haveLast   bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastFrame:  make([]int16, channels),
	}
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Resample converts interleaved input at inputRate and appends the result
// at outputRate to out.
func (r *Resampler) Resample(input []int16, out []int16) []int16 {
	if r.Passthrough() {
		return append(out, input...)
	}

	inputFrames := len(input) / r.channels
	if inputFrames == 0 {
		return out
	}

	total := inputFrames
	if r.haveLast {
		total++
	}

	sample := func(frame, ch int) int16 {
		if r.haveLast {
			if frame == 0 {
				return r.lastFrame[ch]
			}
			frame--
		}
		return input[frame*r.channels+ch]
	}

	for {
		idx := int(r.position)
		if idx+1 >= total {
			break
		}
		frac := r.position - float64(idx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(sample(idx, ch))
			s2 := float64(sample(idx+1, ch))
			out = append(out, int16(s1*(1.0-frac)+s2*frac))
		}
		r.position += r.ratio
	}

	// the last input frame becomes frame 0 of the next call
	r.position -= float64(total - 1)
	copy(r.lastFrame, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
	r.haveLast = true

	return out
}

// OutputSamplesNeeded estimates how many output samples inputSamples will produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.haveLast = false
	for i := range r.lastFrame {
		r.lastFrame[i] = 0
	}
}

// Remix converts interleaved samples between channel layouts and appends
// the result to out. Downmixing to mono averages all channels; other
// conversions map output channel n to input channel n mod inCh.
func Remix(input []int16, inCh, outCh int, out []int16) []int16 {
	if inCh == outCh {
		return append(out, input...)
	}

	frames := len(input) / inCh
	for f := 0; f < frames; f++ {
		src := input[f*inCh : (f+1)*inCh]
		if outCh == 1 {
			sum := 0
			for _, s := range src {
				sum += int(s)
			}
			out = append(out, int16(sum/inCh))
			continue
		}
		for ch := 0; ch < outCh; ch++ {
			out = append(out, src[ch%inCh])
		}
	}
	return out
}

// Converter adapts S16LE bytes from one rate/channel layout to another,
// like a convert+resample stage in a media pipeline.
type Converter struct {
	inChannels  int
	outChannels int
	resampler   *Resampler
	in          []int16
	mixed       []int16
	resampled   []int16
	out         []byte
}

// NewConverter creates a converter from (inRate, inChannels) to the target parameters
func NewConverter(inRate, inChannels int, target audio.Params) *Converter {
	return &Converter{
		inChannels:  inChannels,
		outChannels: target.Channels,
		resampler:   New(inRate, target.SampleRate, target.Channels),
	}
}

// Identity reports whether the converter leaves audio untouched
func (c *Converter) Identity() bool {
	return c.inChannels == c.outChannels && c.resampler.Passthrough()
}

// Process converts one chunk of S16LE bytes. The returned slice is reused
// by the next call.
func (c *Converter) Process(pcm []byte) []byte {
	if c.Identity() {
		return pcm
	}

	n := len(pcm) / 2
	if cap(c.in) < n {
		c.in = make([]int16, n)
	}
	c.in = c.in[:n]
	audio.BytesToSamples(c.in, pcm)

	c.mixed = Remix(c.in, c.inChannels, c.outChannels, c.mixed[:0])
	c.resampled = c.resampler.Resample(c.mixed, c.resampled[:0])

	size := len(c.resampled) * 2
	if cap(c.out) < size {
		c.out = make([]byte, size)
	}
	c.out = c.out[:size]
	audio.SamplesToBytes(c.out, c.resampled)
	return c.out
}
