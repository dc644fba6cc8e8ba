// Package orchestrator ties the registry, conversation loop, tracker, and
// front-end together: one inbound message in, delivered text (and possibly a
// payment QR image plus a new tracking task) out.
package orchestrator

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"

	contractx "github.com/ordino-ai/ordino/agent/contract"
	loopx "github.com/ordino-ai/ordino/agent/loop"
	sessionx "github.com/ordino-ai/ordino/agent/session"
	toolx "github.com/ordino-ai/ordino/agent/tool"
	trackerx "github.com/ordino-ai/ordino/agent/tracker"
)

const greeting = "Hello! I'm your food ordering assistant. What would you like to order today?"

type Service struct {
	registry *sessionx.Registry
	loop     *loopx.Loop
	tracker  *trackerx.Manager
	notifier contractx.Notifier

	// trackCtx is the process root context: tracking tasks outlive the
	// request that spawned them and stop on process shutdown.
	trackCtx context.Context
}

func New(trackCtx context.Context, registry *sessionx.Registry, loop *loopx.Loop, tracker *trackerx.Manager, notifier contractx.Notifier) (*Service, error) {
	if registry == nil || loop == nil || tracker == nil || notifier == nil {
		return nil, errors.New("orchestrator: all collaborators are required")
	}
	if trackCtx == nil {
		trackCtx = context.Background()
	}
	return &Service{
		trackCtx: trackCtx,
		registry: registry,
		loop:     loop,
		tracker:  tracker,
		notifier: notifier,
	}, nil
}

// HandleStart resets the user's session (tearing down its tracking tasks)
// and greets.
func (s *Service) HandleStart(ctx context.Context, userID string) error {
	s.tracker.StopUser(userID)
	s.registry.Reset(userID)
	return s.notifier.DeliverText(ctx, userID, greeting)
}

// HandleMessage runs one full turn: resolve the session, drive the loop to a
// final answer, deliver it, forward a payment QR image when one was produced,
// and start tracking freshly checked-out orders. Turns for one session are
// strictly sequential; a concurrent message waits its turn here.
func (s *Service) HandleMessage(ctx context.Context, userID, text string) error {
	sess := s.registry.Resolve(userID)
	sess.Acquire()
	defer sess.Release()

	reply := s.loop.Run(ctx, sess, text)

	imagePath, cleaned, hasImage := toolx.ExtractQRMarker(reply)
	if err := s.notifier.DeliverText(ctx, userID, cleaned); err != nil {
		return err
	}

	if hasImage {
		if _, err := os.Stat(imagePath); err != nil {
			log.Warn().Str("path", imagePath).Msg("QR image referenced but missing on disk")
		} else if err := s.notifier.DeliverImage(ctx, userID, imagePath); err != nil {
			log.Warn().Err(err).Str("path", imagePath).Msg("QR image delivery failed")
			_ = s.notifier.DeliverText(ctx, userID, "Failed to send the payment QR image.")
		}
	}

	for _, cartID := range sess.DrainTracking() {
		s.tracker.Track(s.trackCtx, sess, cartID)
	}
	return nil
}
