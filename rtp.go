package gputrack

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/pion/webrtc/v4"
)

// DefaultMTU is the RTP payload budget used when none is configured.
const DefaultMTU = 1200

// rtpHeaderSize is the fixed RTP header length without extensions.
const rtpHeaderSize = 12

// EncodedFrame is one encoded video frame read back from the native
// encoder.
type EncodedFrame struct {
	Data      []byte
	Keyframe  bool
	Timestamp uint32 // RTP timestamp, 90kHz clock
}

// RTPPacketizer converts encoded frames into RTP packets.
type RTPPacketizer interface {
	Packetize(frame *EncodedFrame) ([]*rtp.Packet, error)
	PayloadType() uint8
	SetPayloadType(pt uint8)
	SetSSRC(ssrc uint32)
}

// videoPacketizer packetizes encoded video with a pion payloader chosen by
// MIME type.
type videoPacketizer struct {
	mu          sync.Mutex
	ssrc        uint32
	payloadType uint8
	mtu         int
	sequencer   rtp.Sequencer
	payloader   rtp.Payloader
}

// NewVideoPacketizer creates a packetizer for the given codec MIME type.
// VP8, VP9, H.264 and AV1 are supported.
func NewVideoPacketizer(mimeType string, ssrc uint32, pt uint8, mtu int) (RTPPacketizer, error) {
	if mtu <= 0 {
		mtu = DefaultMTU
	}
	var payloader rtp.Payloader
	switch strings.ToLower(mimeType) {
	case strings.ToLower(webrtc.MimeTypeVP8):
		payloader = &codecs.VP8Payloader{}
	case strings.ToLower(webrtc.MimeTypeVP9):
		payloader = &codecs.VP9Payloader{}
	case strings.ToLower(webrtc.MimeTypeH264):
		payloader = &codecs.H264Payloader{}
	case strings.ToLower(webrtc.MimeTypeAV1):
		payloader = &codecs.AV1Payloader{}
	default:
		return nil, fmt.Errorf("no payloader for %s", mimeType)
	}
	return &videoPacketizer{
		ssrc:        ssrc,
		payloadType: pt,
		mtu:         mtu,
		sequencer:   rtp.NewRandomSequencer(),
		payloader:   payloader,
	}, nil
}

// Packetize implements RTPPacketizer.
func (p *videoPacketizer) Packetize(frame *EncodedFrame) ([]*rtp.Packet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(frame.Data) == 0 {
		return nil, nil
	}

	payloads := p.payloader.Payload(uint16(p.mtu-rtpHeaderSize), frame.Data)
	if len(payloads) == 0 {
		return nil, nil
	}

	packets := make([]*rtp.Packet, len(payloads))
	for i, payload := range payloads {
		packets[i] = &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				Marker:         i == len(payloads)-1,
				PayloadType:    p.payloadType,
				SequenceNumber: p.sequencer.NextSequenceNumber(),
				Timestamp:      frame.Timestamp,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		}
	}
	return packets, nil
}

func (p *videoPacketizer) PayloadType() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payloadType
}

func (p *videoPacketizer) SetPayloadType(pt uint8) {
	p.mu.Lock()
	p.payloadType = pt
	p.mu.Unlock()
}

func (p *videoPacketizer) SetSSRC(ssrc uint32) {
	p.mu.Lock()
	p.ssrc = ssrc
	p.mu.Unlock()
}
