package stream

import (
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/drgolem/afengine/pkg/decoder"
)

// fakeProvider hands out one fixed packet of 16-bit stereo PCM, then io.EOF.
type fakeProvider struct {
	served bool
}

func (p *fakeProvider) ReadAudioPacket(_ context.Context, samples int) (*AudioPacket, error) {
	if p.served {
		return nil, io.EOF
	}
	p.served = true

	format := AudioFormat{SampleRate: 44100, Channels: 2, BytesPerSample: 2}
	const frames = 4
	audio := make([]byte, frames*format.Channels*format.BytesPerSample)
	for i := 0; i < frames*format.Channels; i++ {
		binary.LittleEndian.PutUint16(audio[i*2:], uint16(int16(16384)))
	}

	return &AudioPacket{
		Audio:        audio,
		SamplesCount: frames,
		Format:       format,
	}, nil
}

func TestOpenProviderDecodesOnePacket(t *testing.T) {
	dec, err := OpenProvider(context.Background(), &fakeProvider{}, AudioFormat{SampleRate: 44100, Channels: 2, BytesPerSample: 2})
	if err != nil {
		t.Fatalf("OpenProvider: %v", err)
	}
	defer dec.Close()

	spec := dec.SignalSpec()
	if spec.SampleRate != 44100 || spec.ChannelCount != 2 {
		t.Fatalf("unexpected SignalSpec: %+v", spec)
	}

	var buf decoder.SampleBuffer
	ok, err := dec.ReadPacket(&buf)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if !ok || buf.Frames != 4 {
		t.Fatalf("ok=%v frames=%d, want ok=true frames=4", ok, buf.Frames)
	}

	want := float32(16384) / 32768.0
	for i, v := range buf.Data[:buf.Frames*2] {
		if v != want {
			t.Errorf("sample[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestOpenProviderReportsEndOfStream(t *testing.T) {
	dec, err := OpenProvider(context.Background(), &fakeProvider{}, AudioFormat{SampleRate: 44100, Channels: 2, BytesPerSample: 2})
	if err != nil {
		t.Fatalf("OpenProvider: %v", err)
	}
	defer dec.Close()

	var buf decoder.SampleBuffer
	if _, err := dec.ReadPacket(&buf); err != nil {
		t.Fatalf("first ReadPacket: %v", err)
	}

	ok, err := dec.ReadPacket(&buf)
	if err != nil {
		t.Fatalf("second ReadPacket: %v", err)
	}
	if ok {
		t.Error("expected end of stream on second ReadPacket")
	}
}
