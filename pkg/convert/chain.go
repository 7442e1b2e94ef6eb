package convert

import (
	"github.com/drgolem/afengine/pkg/resampler"
	"github.com/drgolem/afengine/pkg/source"
)

// Chain wraps src in, in order, a channel-mapper (if src.ChannelCount() !=
// sinkChannels) and a resampler (if the resulting rate != sinkRate/speed),
// per spec.md §4.2. speed > 0; 1.0 is unity speed. Returns src unchanged if
// neither adapter is needed.
func Chain(src source.Source, sinkChannels, sinkRate int, speed float64, quality resampler.Quality) (source.Source, error) {
	mapped := NewChannelMapper(src, sinkChannels)

	outRate := int(float64(sinkRate) / speed)
	resampled, err := NewResampler(mapped, quality, outRate)
	if err != nil {
		return nil, err
	}
	return resampled, nil
}
