package rtc

import (
	"fmt"

	"github.com/dkeye/Walkie/internal/config"
	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// ICEConfig is what browsers need to build their RTCPeerConnection.
// The server never terminates media itself.
type ICEConfig struct {
	ICEServers           []webrtc.ICEServer        `json:"iceServers"`
	ICECandidatePoolSize uint8                     `json:"iceCandidatePoolSize"`
	ICETransportPolicy   webrtc.ICETransportPolicy `json:"iceTransportPolicy"`
}

// Configuration returns the equivalent pion configuration.
func (c ICEConfig) Configuration() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers:           c.ICEServers,
		ICECandidatePoolSize: c.ICECandidatePoolSize,
		ICETransportPolicy:   c.ICETransportPolicy,
	}
}

// BuildICEConfig validates every configured url and drops servers with none left.
func BuildICEConfig(cfg *config.Config) (ICEConfig, error) {
	out := ICEConfig{
		ICECandidatePoolSize: cfg.ICECandidatePoolSize,
		ICETransportPolicy:   webrtc.ICETransportPolicyAll,
	}
	if cfg.ICETransportPolicy != "" {
		out.ICETransportPolicy = webrtc.NewICETransportPolicy(cfg.ICETransportPolicy)
		if out.ICETransportPolicy.String() != cfg.ICETransportPolicy {
			return ICEConfig{}, fmt.Errorf("unknown ice transport policy %q", cfg.ICETransportPolicy)
		}
	}

	for i, s := range cfg.ICEServers {
		server, err := buildServer(s)
		if err != nil {
			return ICEConfig{}, fmt.Errorf("ice server #%d: %w", i, err)
		}
		out.ICEServers = append(out.ICEServers, server)
	}
	log.Info().
		Str("module", "adapters.rtc").
		Int("servers", len(out.ICEServers)).
		Str("policy", out.ICETransportPolicy.String()).
		Msg("ice config ready")
	return out, nil
}

func buildServer(s config.ICEServer) (webrtc.ICEServer, error) {
	if len(s.URLs) == 0 {
		return webrtc.ICEServer{}, fmt.Errorf("no urls")
	}
	needsCreds := false
	for _, raw := range s.URLs {
		u, err := stun.ParseURI(raw)
		if err != nil {
			return webrtc.ICEServer{}, fmt.Errorf("parse %q: %w", raw, err)
		}
		if u.Scheme == stun.SchemeTypeTURN || u.Scheme == stun.SchemeTypeTURNS {
			needsCreds = true
		}
	}
	if needsCreds && (s.Username == "" || s.Credential == "") {
		return webrtc.ICEServer{}, fmt.Errorf("turn server %v requires username and credential", s.URLs)
	}

	server := webrtc.ICEServer{URLs: s.URLs}
	if s.Username != "" {
		server.Username = s.Username
		server.Credential = s.Credential
	}
	return server, nil
}
