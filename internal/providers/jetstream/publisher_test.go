package jetstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swagly/proof-validator/internal/adapter"
	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/messaging"
	"github.com/swagly/proof-validator/internal/mocks"
	"github.com/swagly/proof-validator/internal/providers/jetstream"
)

type publisherMocks struct {
	ctrl   *gomock.Controller
	natsJS *mocks.MockNatsJetStream
	nc     *mocks.MockNatsConn
	js     *mocks.MockJetStream
	clock  *mocks.MockClock
}

func setupPublisherMocks(t *testing.T) *publisherMocks {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return &publisherMocks{
		ctrl:   ctrl,
		natsJS: mocks.NewMockNatsJetStream(ctrl),
		nc:     mocks.NewMockNatsConn(ctrl),
		js:     mocks.NewMockJetStream(ctrl),
		clock:  mocks.NewMockClock(ctrl),
	}
}

var testConfig = jetstream.Config{
	URL:            "nats://localhost:4222",
	StreamName:     "PROOF_EVENTS",
	SubjectPrefix:  "proofs",
	MaxReconnects:  5,
	ReconnectWait:  time.Second,
	ConnectionName: "proof-validator-test",
}

func TestNewPublisher(t *testing.T) {
	t.Run("creates stream", func(t *testing.T) {
		m := setupPublisherMocks(t)
		m.natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(m.nc, m.js, nil)
		m.js.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cfg natsjs.StreamConfig) error {
				assert.Equal(t, "PROOF_EVENTS", cfg.Name)
				assert.Equal(t, []string{"proofs.>"}, cfg.Subjects)
				return nil
			})

		pub, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON(), m.clock)
		require.NoError(t, err)
		assert.NotNil(t, pub)
	})

	t.Run("connect error", func(t *testing.T) {
		m := setupPublisherMocks(t)
		m.natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(nil, nil, errors.New("no servers available"))

		_, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON(), m.clock)
		assert.Error(t, err)
	})

	t.Run("stream error closes connection", func(t *testing.T) {
		m := setupPublisherMocks(t)
		m.natsJS.EXPECT().Connect(testConfig.URL, gomock.Any()).Return(m.nc, m.js, nil)
		m.js.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).Return(errors.New("insufficient resources"))
		m.nc.EXPECT().Close()

		_, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON(), m.clock)
		assert.Error(t, err)
	})

	t.Run("missing subject prefix", func(t *testing.T) {
		m := setupPublisherMocks(t)
		cfg := testConfig
		cfg.SubjectPrefix = ""

		_, err := jetstream.NewPublisher(context.Background(), cfg, m.natsJS, adapter.NewJSON(), m.clock)
		assert.Error(t, err)
	})
}

func newPublisher(t *testing.T, m *publisherMocks) messaging.Publisher {
	m.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(m.nc, m.js, nil)
	m.js.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).Return(nil)
	pub, err := jetstream.NewPublisher(context.Background(), testConfig, m.natsJS, adapter.NewJSON(), m.clock)
	require.NoError(t, err)
	return pub
}

func TestPublisher_PublishProofEvent(t *testing.T) {
	t.Run("publishes on status subject", func(t *testing.T) {
		m := setupPublisherMocks(t)
		pub := newPublisher(t, m)
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		m.clock.EXPECT().Now().Return(now)

		event := &domain.ProofEvent{
			ProofID:       "proof-1",
			UserID:        "user-1",
			ActivityID:    "activity-1",
			PassportID:    "passport-1",
			ProofType:     domain.ProofTypeTransaction,
			Status:        domain.ProofStatusApproved,
			TokensAwarded: 50,
		}

		m.js.EXPECT().Publish(gomock.Any(), "proofs.approved", gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, data []byte, opts ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
				var decoded domain.ProofEvent
				require.NoError(t, json.Unmarshal(data, &decoded))
				assert.Equal(t, "proof-1", decoded.ProofID)
				assert.NotEmpty(t, decoded.EventID)
				assert.True(t, decoded.Timestamp.Equal(now))
				assert.Len(t, opts, 1)
				return &natsjs.PubAck{Stream: "PROOF_EVENTS", Sequence: 1}, nil
			})

		require.NoError(t, pub.PublishProofEvent(context.Background(), event))
		assert.Len(t, event.EventID, 26)
	})

	t.Run("keeps existing event id", func(t *testing.T) {
		m := setupPublisherMocks(t)
		pub := newPublisher(t, m)

		event := &domain.ProofEvent{
			EventID:   "01JG8XAMPLE1234567890123456",
			Status:    domain.ProofStatusRejected,
			Timestamp: time.Now(),
		}
		m.js.EXPECT().Publish(gomock.Any(), "proofs.rejected", gomock.Any(), gomock.Any()).Return(&natsjs.PubAck{}, nil)

		require.NoError(t, pub.PublishProofEvent(context.Background(), event))
		assert.Equal(t, "01JG8XAMPLE1234567890123456", event.EventID)
	})

	t.Run("publish error", func(t *testing.T) {
		m := setupPublisherMocks(t)
		pub := newPublisher(t, m)

		m.js.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("no responders"))

		err := pub.PublishProofEvent(context.Background(), &domain.ProofEvent{Status: domain.ProofStatusApproved, Timestamp: time.Now()})
		assert.Error(t, err)
	})
}

func TestPublisher_Close(t *testing.T) {
	t.Run("drains", func(t *testing.T) {
		m := setupPublisherMocks(t)
		pub := newPublisher(t, m)
		m.nc.EXPECT().Drain().Return(nil)
		pub.Close()
	})

	t.Run("closes when drain fails", func(t *testing.T) {
		m := setupPublisherMocks(t)
		pub := newPublisher(t, m)
		m.nc.EXPECT().Drain().Return(errors.New("connection closed"))
		m.nc.EXPECT().Close()
		pub.Close()
	})
}
