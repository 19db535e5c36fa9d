package server

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/kipper0508/escape-bot/internal/logging"
	"github.com/kipper0508/escape-bot/internal/model"
	"github.com/kipper0508/escape-bot/internal/notify"
	"github.com/kipper0508/escape-bot/internal/service"
	"github.com/kipper0508/escape-bot/internal/validate"
)

// handleWebhook verifies and decodes a LINE webhook batch, then handles its
// events concurrently. Failures of single events are logged; the batch is
// still acknowledged.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if !notify.VerifySignature(s.cfg.ChannelSecret, body, r.Header.Get(notify.SignatureHeader)) {
		logging.WarnContext(r.Context(), "webhook signature mismatch", "remote_addr", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	payload, err := notify.ParseWebhook(body)
	if err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, event := range payload.Events {
		g.Go(func() error {
			ctx := logging.NewRequestContext(r.Context())
			if err := s.handleEvent(ctx, event); err != nil {
				logging.ErrorContext(ctx, "event handling failed",
					"event_type", event.Type, logging.KeyError, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleEvent(ctx context.Context, event notify.WebhookEvent) error {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(event.Type).Inc()
	}

	switch event.Type {
	case notify.EventJoin:
		return s.replier.Reply(ctx, event.ReplyToken, service.WelcomeMessage(s.parser.Trigger()))
	case notify.EventMessage:
		return s.handleMessage(ctx, event)
	default:
		return nil
	}
}

func (s *Server) handleMessage(ctx context.Context, event notify.WebhookEvent) error {
	text := validate.StripControlChars(event.Text())
	if text == "" || !s.parser.HasTrigger(text) {
		return nil
	}

	creator, ok := event.Source.Creator()
	if !ok {
		return nil
	}
	if s.cfg.GroupOnly && creator.Kind != model.CreatorGroup {
		logging.WarnContext(ctx, "ignoring command outside a group", "source", event.Source.Type)
		return nil
	}

	cmd := s.parser.Parse(text)
	logging.InfoContext(ctx, "command received",
		logging.KeyCommand, string(cmd.Kind()),
		logging.KeyCreator, logging.MaskPartial(creator.ID, 8))

	reply := s.handler.Handle(ctx, creator, cmd)
	return s.replier.Reply(ctx, event.ReplyToken, reply)
}
