package toolclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"github.com/deep-sre-agent/go-toolclient/src/json"
	"github.com/deep-sre-agent/go-toolclient/src/logging"
	"github.com/deep-sre-agent/go-toolclient/src/transports"
)

// operation is the single request made on an initialized session.
type operation func(ctx context.Context, s transports.Session) (any, error)

// do runs fn on its own goroutine and waits for it. Calls on one client are
// serialized, so at most one session is open at a time. A panic in fn is
// returned as an error.
func (c *Client) do(ctx context.Context, fn func(ctx context.Context) (any, error)) (result any, err error) {
	c.callMu.Lock()
	defer c.callMu.Unlock()

	var wg conc.WaitGroup
	wg.Go(func() {
		result, err = fn(ctx)
	})
	if r := wg.WaitAndRecover(); r != nil {
		return nil, fmt.Errorf("panic during call: %w", r.AsError())
	}
	return result, err
}

// runCall opens one session, performs the handshake, runs op and closes the
// session on every path.
func (c *Client) runCall(ctx context.Context, name string, args map[string]any, op operation) (any, error) {
	log := c.log.With().Str("call_id", uuid.NewString()).Str("op", name).Logger()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	sess, mode, err := c.open(ctx, &log)
	if err != nil {
		c.logCallError(&log, name, err, args)
		return nil, err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("MCP session close failed")
		}
	}()

	log.Info().Str("mode", string(mode)).Msg("MCP call")
	if c.log.Verbose() && args != nil {
		log.Info().Str("arguments", json.SafeText(args)).Msg("MCP call arguments")
	}
	result, err := op(ctx, sess)
	if err != nil {
		c.logCallError(&log, name, err, args)
		return nil, err
	}
	return result, nil
}

// open walks the selector's plan. Dial and handshake failures move on to
// the fallback attempt, if any; a successful fallback is sticky.
func (c *Client) open(ctx context.Context, log *zerolog.Logger) (transports.Session, transports.Mode, error) {
	plan, err := c.selector.Plan()
	if err != nil {
		return nil, "", err
	}
	var failures []error
	for _, a := range plan {
		if a.fallback {
			log.Warn().Str("url", a.url).Msg("event-stream connection failed, falling back to plain HTTP")
		} else {
			log.Info().Str("mode", string(a.mode)).Str("url", a.url).Msg("MCP connect")
		}
		sess, err := c.handshake(ctx, a)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s %s: %w", a.mode, a.url, err))
			continue
		}
		if a.fallback {
			c.selector.promote()
		}
		return sess, a.mode, nil
	}

	err = errors.Join(failures...)
	if len(failures) == 1 {
		err = failures[0]
	}
	if len(plan) == 1 && plan[0].mode == transports.ModeEventStream {
		if cfgErr := c.selector.fallbackMissing(); cfgErr != nil {
			err = errors.Join(cfgErr, err)
		}
	}
	return nil, "", err
}

func (c *Client) handshake(ctx context.Context, a attempt) (transports.Session, error) {
	sess, err := c.registry.Dial(ctx, transports.Endpoint{
		Mode:    a.mode,
		URL:     a.url,
		Headers: c.cfg.Headers,
		Timeout: c.cfg.Timeout,
		Logger:  c.log.Printf(),
	})
	if err != nil {
		return nil, err
	}
	if err := sess.Initialize(ctx); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// logCallError writes the error, each joined sub-error, and an argument
// preview, all truncated.
func (c *Client) logCallError(log *zerolog.Logger, name string, err error, args map[string]any) {
	log.Error().
		Str("name", name).
		Str("type", fmt.Sprintf("%T", err)).
		Str(zerolog.ErrorFieldName, logging.Truncate(err.Error(), logging.MaxMessage)).
		Msg("MCP call tool error")
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for i, sub := range joined.Unwrap() {
			log.Error().
				Int("index", i).
				Str("type", fmt.Sprintf("%T", sub)).
				Str(zerolog.ErrorFieldName, logging.Truncate(sub.Error(), logging.MaxMessage)).
				Msg("MCP sub-error")
		}
	}
	if args != nil {
		log.Error().Str("args", logging.Truncate(json.SafeText(args), logging.MaxMessage)).Msg("MCP call tool args")
	}
}
