package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go"

	"github.com/tbeaudouin05/admin-checkout/api/metrics"
	"github.com/tbeaudouin05/admin-checkout/api/services/checkout/backend"
	mockgw "github.com/tbeaudouin05/admin-checkout/api/services/checkout/gateway/mock"
)

func newTestService(t *testing.T, g *mockgw.MockPaymentGateway, b *fakeBackend, ttl time.Duration) Service {
	t.Helper()
	deps := Deps{
		Backend:        b,
		FollowUps:      newFakeStore(),
		DashboardRoute: "/admin/dashboard",
		Now:            func() time.Time { return testNow },
	}
	if g != nil {
		deps.Gateway = g
	}
	return NewService(deps, 16, ttl)
}

func Test_Service_StartAndSubmit(t *testing.T) {
	ctrl := gomock.NewController(t)
	g := mockgw.NewMockPaymentGateway(ctrl)
	b := newBackendWithSecret()
	b.user = backend.User{Email: "admin@example.com", Name: "Ada Admin", EmployeeLimitTotal: 10, EmployeeLimitRemaining: 5}
	svc := newTestService(t, g, b, time.Minute)

	sess, err := svc.StartCheckout(context.Background(), StartRequest{Email: "admin@example.com", Package: testPackage})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.SessionID)
	assert.Equal(t, PhaseReady, sess.View.Phase)

	g.EXPECT().CreatePaymentMethod(gomock.Any(), testCard, testBilling).Return(stripe.PaymentMethod{ID: "pm_1"}, nil)
	g.EXPECT().ConfirmCardPayment(gomock.Any(), "pi_50_secret_a", "pm_1").
		Return(stripe.PaymentIntent{ID: "pi_50", Status: stripe.PaymentIntentStatusSucceeded}, nil)

	res, err := svc.SubmitPayment(context.Background(), sess.SessionID, testCard)
	require.NoError(t, err)
	assert.Equal(t, sess.SessionID, res.SessionID)
	assert.Equal(t, "/admin/dashboard", res.Redirect)

	patches := b.callsOf("ExtendEmployeeLimit")
	require.Len(t, patches, 1)
	assert.Equal(t, backend.LimitUpdate{EmployeeLimitTotal: 13, EmployeeLimitRemaining: 8}, patches[0].Body)

	got, err := svc.GetCheckout(sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, PhaseSucceeded, got.View.Phase)
}

func Test_Service_StartValidatesInput(t *testing.T) {
	svc := newTestService(t, nil, newBackendWithSecret(), time.Minute)

	_, err := svc.StartCheckout(context.Background(), StartRequest{Package: testPackage})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = svc.StartCheckout(context.Background(), StartRequest{Email: "a@b.c", Package: PackageInfo{Price: -1}})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func Test_Service_StartUserLookupFailure(t *testing.T) {
	b := newBackendWithSecret()
	b.userErr = errors.New("404")
	svc := newTestService(t, nil, b, time.Minute)

	_, err := svc.StartCheckout(context.Background(), StartRequest{Email: "a@b.c", Package: testPackage})
	assert.ErrorIs(t, err, ErrBackend)
	assert.Empty(t, b.callsOf("CreatePaymentIntent"))
}

func Test_Service_StartSecretFailureKeepsNoSession(t *testing.T) {
	b := newBackendWithSecret()
	b.secretErr = errors.New("boom")
	svc := newTestService(t, nil, b, time.Minute)

	sess, err := svc.StartCheckout(context.Background(), StartRequest{Email: "a@b.c", Package: testPackage})
	assert.ErrorIs(t, err, ErrSecretFetch)
	assert.Empty(t, sess.SessionID)
}

func Test_Service_ChangePackageAndCancel(t *testing.T) {
	b := newBackendWithSecret()
	svc := newTestService(t, nil, b, time.Minute)

	sess, err := svc.StartCheckout(context.Background(), StartRequest{Email: "a@b.c", Package: testPackage})
	require.NoError(t, err)

	got, err := svc.ChangePackage(context.Background(), sess.SessionID, PackageInfo{Price: 80, Member: 5})
	require.NoError(t, err)
	assert.Equal(t, "Pay 80$", got.View.PayLabel)
	assert.Len(t, b.callsOf("CreatePaymentIntent"), 2)

	require.NoError(t, svc.CancelCheckout(sess.SessionID))
	_, err = svc.GetCheckout(sess.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.CancelCheckout(sess.SessionID), ErrSessionNotFound)
}

func Test_Service_UnknownSession(t *testing.T) {
	svc := newTestService(t, nil, newBackendWithSecret(), time.Minute)

	_, err := svc.SubmitPayment(context.Background(), "nope", testCard)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.ChangePackage(context.Background(), "nope", testPackage)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func Test_Service_SessionsExpire(t *testing.T) {
	svc := newTestService(t, nil, newBackendWithSecret(), 50*time.Millisecond)

	sess, err := svc.StartCheckout(context.Background(), StartRequest{Email: "a@b.c", Package: testPackage})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := svc.GetCheckout(sess.SessionID)
		return errors.Is(err, ErrSessionNotFound)
	}, 2*time.Second, 20*time.Millisecond)
}

func Test_Service_ActiveSessionsTracksEviction(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	svc := NewService(Deps{
		Backend: newBackendWithSecret(),
		Metrics: m,
		Now:     func() time.Time { return testNow },
	}, 2, 200*time.Millisecond)

	var ids []string
	for i := 0; i < 3; i++ {
		sess, err := svc.StartCheckout(context.Background(), StartRequest{Email: "a@b.c", Package: testPackage})
		require.NoError(t, err)
		ids = append(ids, sess.SessionID)
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ActiveSessions))
	_, err := svc.GetCheckout(ids[0])
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, svc.CancelCheckout(ids[2]))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ActiveSessions))

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.ActiveSessions) == 0
	}, 2*time.Second, 20*time.Millisecond)
}
