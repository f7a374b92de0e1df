package notificationhub

import (
	"context"
	"errors"
	"testing"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/contracts"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"
	"git.platform.alem.school/amibragim/shop-events/internal/shared/userclient"

	"github.com/stretchr/testify/assert"
)

type stubLookup struct {
	email string
	err   error
	calls []string
}

func (s *stubLookup) Email(_ context.Context, userID string) (string, error) {
	s.calls = append(s.calls, userID)
	return s.email, s.err
}

func orderEvent(payload contracts.Payload) contracts.Event {
	return contracts.Event{Type: contracts.OrderPlaced, Payload: payload, Timestamp: 1}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name       string
		payload    contracts.Payload
		lookup     *stubLookup
		admin      string
		want       string
		wantSource string
		wantCalls  int
	}{
		{
			name:       "payload email wins without lookup",
			payload:    contracts.Payload{"id": "o1", "userId": "u1", "userEmail": "a@x.com"},
			lookup:     &stubLookup{email: "b@y.com"},
			admin:      "admin@shop.com",
			want:       "a@x.com",
			wantSource: SourcePayload,
		},
		{
			name:       "lookup by user id",
			payload:    contracts.Payload{"id": "o1", "userId": "u1"},
			lookup:     &stubLookup{email: "b@y.com"},
			admin:      "admin@shop.com",
			want:       "b@y.com",
			wantSource: SourceLookup,
			wantCalls:  1,
		},
		{
			name:       "empty payload email falls through to lookup",
			payload:    contracts.Payload{"id": "o1", "userId": "u1", "userEmail": "  "},
			lookup:     &stubLookup{email: "b@y.com"},
			want:       "b@y.com",
			wantSource: SourceLookup,
			wantCalls:  1,
		},
		{
			name:       "failed lookup goes to admin",
			payload:    contracts.Payload{"id": "o1", "userId": "u1"},
			lookup:     &stubLookup{err: userclient.ErrUserNotFound},
			admin:      "admin@shop.com",
			want:       "admin@shop.com",
			wantSource: SourceAdmin,
			wantCalls:  1,
		},
		{
			name:       "failed lookup without admin goes to sender",
			payload:    contracts.Payload{"id": "o1", "userId": "u1"},
			lookup:     &stubLookup{err: errors.New("context deadline exceeded")},
			want:       "shop@x.com",
			wantSource: SourceSender,
			wantCalls:  1,
		},
		{
			name:       "no user id goes to admin",
			payload:    contracts.Payload{"id": "o1"},
			lookup:     &stubLookup{},
			admin:      "admin@shop.com",
			want:       "admin@shop.com",
			wantSource: SourceAdmin,
		},
		{
			name:       "anonymous order is not looked up",
			payload:    contracts.Payload{"id": "o1", "userId": "anonymous"},
			lookup:     &stubLookup{email: "b@y.com"},
			want:       "shop@x.com",
			wantSource: SourceSender,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver(tc.lookup, tc.admin, "shop@x.com", logger.NewNop(), nil)

			got, source := r.Resolve(context.Background(), orderEvent(tc.payload))
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.wantSource, source)
			assert.Len(t, tc.lookup.calls, tc.wantCalls)
			assert.NotEmpty(t, got)
		})
	}
}
