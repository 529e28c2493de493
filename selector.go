package toolclient

import (
	"fmt"
	"sync"

	"github.com/deep-sre-agent/go-toolclient/src/logging"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

// attempt is one way of opening a session for a call.
type attempt struct {
	mode     transports.Mode
	url      string
	fallback bool
}

// selector decides which transport each call uses. Its mode only ever moves
// from event-stream to plain HTTP.
type selector struct {
	mu       sync.Mutex
	mode     transports.Mode
	cfg      ClientConfig
	registry transports.Registry
	log      *logging.Sink
}

func newSelector(cfg ClientConfig, registry transports.Registry, log *logging.Sink) *selector {
	s := &selector{mode: cfg.Mode, cfg: cfg, registry: registry, log: log}
	if s.mode == "" {
		s.mode = transports.ModeEventStream
	}
	if s.mode == transports.ModeEventStream &&
		cfg.Endpoints.EventStream == "" &&
		cfg.Endpoints.PlainHTTP != "" &&
		registry.Has(transports.ModePlainHTTP) {
		log.Info().Msgf("%s not configured, switching to plain HTTP mode", cfg.Setting(transports.ModeEventStream))
		s.mode = transports.ModePlainHTTP
	}
	return s
}

// Mode returns the current transport mode.
func (s *selector) Mode() transports.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Plan lists the attempts for one logical call. Only the event-stream mode
// carries a fallback.
func (s *selector) Plan() ([]attempt, error) {
	mode := s.Mode()
	url := s.cfg.URLFor(mode)
	if url == "" {
		return nil, &ConfigError{Setting: s.cfg.Setting(mode)}
	}
	if !s.registry.Has(mode) {
		return nil, &ConfigError{
			Setting: s.cfg.settingName("MODE"),
			Reason:  fmt.Sprintf("transport %q is not available", mode),
		}
	}
	plan := []attempt{{mode: mode, url: url}}
	if mode == transports.ModeEventStream && s.fallbackReady() {
		plan = append(plan, attempt{mode: transports.ModePlainHTTP, url: s.cfg.Endpoints.PlainHTTP, fallback: true})
	}
	return plan, nil
}

func (s *selector) fallbackReady() bool {
	return s.cfg.Endpoints.PlainHTTP != "" && s.registry.Has(transports.ModePlainHTTP)
}

// fallbackMissing explains a failed event-stream attempt that had nothing to
// fall back to because the plain HTTP transport is not registered.
func (s *selector) fallbackMissing() error {
	if s.registry.Has(transports.ModePlainHTTP) {
		return nil
	}
	return &ConfigError{
		Setting: s.cfg.settingName("MODE"),
		Reason:  "event-stream connection failed and the plain HTTP transport is unavailable",
	}
}

// promote records a successful fallback. It is permanent for the client.
func (s *selector) promote() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != transports.ModePlainHTTP {
		s.log.Warn().Msg("event-stream transport abandoned, using plain HTTP from now on")
		s.mode = transports.ModePlainHTTP
	}
}
