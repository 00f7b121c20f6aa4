package rtc

import (
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// ICEServers builds the server list handed to call participants. Each entry
// is one URL; an empty list falls back to the default STUN server.
func ICEServers(urls []string, username, credential string) ([]webrtc.ICEServer, error) {
	if len(urls) == 0 {
		return DefaultWebRTCConfig().ICEServers, nil
	}
	servers := make([]webrtc.ICEServer, 0, len(urls))
	for _, u := range urls {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{u},
			Username:   username,
			Credential: credential,
		})
	}
	if err := Validate(servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// Validate lets pion parse the servers by building a throwaway peer connection.
func Validate(servers []webrtc.ICEServer) error {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{ICEServers: servers})
	if err != nil {
		return fmt.Errorf("invalid ice servers: %w", err)
	}
	if err := pc.Close(); err != nil {
		log.Debug().Err(err).Str("module", "rtc").Msg("close validation peer connection")
	}
	return nil
}
