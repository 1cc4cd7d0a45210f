package handler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/subscription-billing/internal/config"
	"github.com/flexprice/subscription-billing/internal/domain/notification"
	"github.com/flexprice/subscription-billing/internal/email"
	"github.com/flexprice/subscription-billing/internal/logger"
	"github.com/flexprice/subscription-billing/internal/metrics"
	"github.com/flexprice/subscription-billing/internal/notification/delivery"
	"github.com/flexprice/subscription-billing/internal/notification/publisher"
	"github.com/flexprice/subscription-billing/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/subscription-billing/internal/pubsub/router"
	"github.com/flexprice/subscription-billing/internal/types"
	"github.com/stretchr/testify/suite"
)

type fakeRecorder struct {
	mu       sync.Mutex
	recorded []*types.NotificationEvent
	results  map[string][]delivery.Result
	failOnce bool
}

func (r *fakeRecorder) RecordNotification(_ context.Context, event *types.NotificationEvent) (*notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOnce {
		r.failOnce = false
		return nil, errors.New("database unavailable")
	}
	r.recorded = append(r.recorded, event)
	return &notification.Notification{ID: "notif_" + event.CustomerID, CustomerID: event.CustomerID}, nil
}

func (r *fakeRecorder) UpdateDeliveryStatus(_ context.Context, id string, results []delivery.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[id] = results
	return nil
}

func (r *fakeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recorded)
}

type HandlerSuite struct {
	suite.Suite
	cfg      *config.Configuration
	recorder *fakeRecorder
	handler  Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.cfg = config.GetDefaultConfig()
	s.cfg.Notification.InitialInterval = time.Millisecond
	s.recorder = &fakeRecorder{results: make(map[string][]delivery.Result)}
	log := logger.GetLogger()
	senders := []delivery.Sender{delivery.NewEmailSender(email.NewClient(s.cfg.Notification.Email), log), delivery.NewSMSSender(log)}
	s.handler = NewHandler(memory.NewPubSub(log), s.cfg, s.recorder, senders, metrics.NewNopMetrics(), log)
}

func (s *HandlerSuite) TestProcessMessageRecordsDeliveryPerChannel() {
	event := types.NotificationEvent{
		ID:         "n1",
		CustomerID: "cust_1",
		Type:       types.NotificationTypePaymentSuccess,
		Message:    "Payment successful",
		Email:      "asha@example.com",
	}
	payload, err := json.Marshal(event)
	s.Require().NoError(err)

	s.NoError(s.handler.ProcessMessage(message.NewMessage("n1", payload)))

	results := s.recorder.results["notif_cust_1"]
	s.Len(results, 2)
	for _, r := range results {
		switch r.Channel {
		case types.NotificationChannelEmail:
			s.True(r.Sent())
		case types.NotificationChannelSMS:
			s.False(r.Sent())
		}
	}
}

func (s *HandlerSuite) TestMalformedPayloadIsAcknowledged() {
	s.NoError(s.handler.ProcessMessage(message.NewMessage("bad", []byte("{not json"))))
	s.Zero(s.recorder.count())
}

func (s *HandlerSuite) TestRouterDeliversPublishedNotifications() {
	log := logger.GetLogger()
	ps := memory.NewPubSub(log)
	defer ps.Close()

	h := NewHandler(ps, s.cfg, s.recorder, nil, metrics.NewNopMetrics(), log)
	router, err := pubsubRouter.NewRouter(s.cfg, ps, log, nil)
	s.Require().NoError(err)
	h.RegisterHandler(router)

	// the first attempt fails and is retried by the router
	s.recorder.failOnce = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	pub := publisher.NewPublisher(ps, s.cfg, metrics.NewNopMetrics(), log)
	s.NoError(pub.Publish(context.Background(), &types.NotificationEvent{
		CustomerID: "cust_2",
		Type:       types.NotificationTypeInvoiceGenerated,
		Message:    "Invoice generated",
	}))

	s.Eventually(func() bool { return s.recorder.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	s.NoError(router.Close())
}
