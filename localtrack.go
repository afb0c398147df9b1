package gputrack

import (
	"strings"
	"sync"

	"github.com/pion/webrtc/v4"
)

// LocalTrack bridges a VideoTrack's encoded output to pion peer
// connections. It implements webrtc.TrackLocal; feed it with frames read
// back from the native encoder:
//
//	track.SyncFrame()
//	n, key, _ := track.ReadEncodedFrame(buf)
//	if n > 0 {
//		local.WriteEncoded(&EncodedFrame{Data: buf[:n], Keyframe: key, Timestamp: ts})
//	}
type LocalTrack struct {
	track      *VideoTrack
	codec      webrtc.RTPCodecCapability
	packetizer RTPPacketizer

	bindMu   sync.RWMutex
	bindings []webrtc.TrackLocalContext
}

// NewLocalTrack creates a pion-facing local track for a send-direction
// VideoTrack.
func NewLocalTrack(track *VideoTrack, codec webrtc.RTPCodecCapability) (*LocalTrack, error) {
	packetizer, err := NewVideoPacketizer(codec.MimeType, 0, 0, DefaultMTU)
	if err != nil {
		return nil, err
	}
	return &LocalTrack{
		track:      track,
		codec:      codec,
		packetizer: packetizer,
	}, nil
}

// Track returns the underlying VideoTrack.
func (t *LocalTrack) Track() *VideoTrack { return t.track }

// Codec returns the codec capability.
func (t *LocalTrack) Codec() webrtc.RTPCodecCapability { return t.codec }

// ID implements webrtc.TrackLocal.
func (t *LocalTrack) ID() string { return t.track.ID() }

// RID implements webrtc.TrackLocal.
func (t *LocalTrack) RID() string { return "" }

// StreamID implements webrtc.TrackLocal.
func (t *LocalTrack) StreamID() string { return t.track.StreamID() }

// Kind implements webrtc.TrackLocal.
func (t *LocalTrack) Kind() webrtc.RTPCodecType { return webrtc.RTPCodecTypeVideo }

// Bind implements webrtc.TrackLocal. It fails with
// webrtc.ErrUnsupportedCodec when the track's codec was not negotiated;
// otherwise the packetizer adopts the negotiated payload type and SSRC.
func (t *LocalTrack) Bind(ctx webrtc.TrackLocalContext) (webrtc.RTPCodecParameters, error) {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	for _, p := range ctx.CodecParameters() {
		if strings.EqualFold(p.MimeType, t.codec.MimeType) {
			t.bindings = append(t.bindings, ctx)
			t.packetizer.SetSSRC(uint32(ctx.SSRC()))
			t.packetizer.SetPayloadType(uint8(p.PayloadType))
			return p, nil
		}
	}
	return webrtc.RTPCodecParameters{}, webrtc.ErrUnsupportedCodec
}

// Unbind implements webrtc.TrackLocal.
func (t *LocalTrack) Unbind(ctx webrtc.TrackLocalContext) error {
	t.bindMu.Lock()
	defer t.bindMu.Unlock()

	for i, b := range t.bindings {
		if b.ID() == ctx.ID() {
			t.bindings = append(t.bindings[:i], t.bindings[i+1:]...)
			break
		}
	}
	return nil
}

// WriteEncoded packetizes an encoded frame and writes the packets to all
// bound contexts.
func (t *LocalTrack) WriteEncoded(frame *EncodedFrame) error {
	packets, err := t.packetizer.Packetize(frame)
	if err != nil {
		return err
	}

	t.bindMu.RLock()
	defer t.bindMu.RUnlock()
	for _, b := range t.bindings {
		for _, pkt := range packets {
			if _, err := b.WriteStream().WriteRTP(&pkt.Header, pkt.Payload); err != nil {
				return err
			}
		}
	}
	return nil
}

var _ webrtc.TrackLocal = (*LocalTrack)(nil)
