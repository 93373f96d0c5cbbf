package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dragvollklubb/paamelding/internal/captcha"
	"github.com/dragvollklubb/paamelding/internal/model"
	"github.com/dragvollklubb/paamelding/internal/repository"
	"github.com/dragvollklubb/paamelding/internal/service"
	"github.com/dragvollklubb/paamelding/internal/testfixtures"
)

func newSignup(store *testfixtures.MemStore, verifier captcha.Verifier) *service.SignupService {
	return service.NewSignupService(store, store.Registrations(), store.Unregisters(), verifier)
}

func validRegister(sessionID int64, name string) model.RegisterPayload {
	return model.RegisterPayload{
		SessionID:      sessionID,
		Name:           name,
		Level:          model.LevelBeginner,
		TurnstileToken: "token-" + name,
	}
}

func TestRegisterHappyPath(t *testing.T) {
	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 20)

	svc := newSignup(store, &testfixtures.StubVerifier{})

	reg, err := svc.Register(context.Background(), validRegister(sess.ID, "Kari Nordmann"))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, reg.SessionID)
	assert.Equal(t, "Kari Nordmann", reg.Name)
	assert.Equal(t, 1, store.RegistrationCount(sess.ID))
}

func TestRegisterTrimsName(t *testing.T) {
	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 20)

	svc := newSignup(store, &testfixtures.StubVerifier{})

	p := validRegister(sess.ID, "  Ola  ")
	reg, err := svc.Register(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Ola", reg.Name)
}

func TestRegisterValidation(t *testing.T) {
	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 20)

	verifier := &testfixtures.StubVerifier{}
	svc := newSignup(store, verifier)

	tests := []struct {
		name    string
		mutate  func(*model.RegisterPayload)
		message string
	}{
		{"zero session id", func(p *model.RegisterPayload) { p.SessionID = 0 }, "Ugyldig økt."},
		{"negative session id", func(p *model.RegisterPayload) { p.SessionID = -4 }, "Ugyldig økt."},
		{"short name", func(p *model.RegisterPayload) { p.Name = "A" }, "Ugyldig navn."},
		{"whitespace name", func(p *model.RegisterPayload) { p.Name = "  a  " }, "Ugyldig navn."},
		{"unknown level", func(p *model.RegisterPayload) { p.Level = "Proff" }, "Ugyldig nivå."},
		{"empty level", func(p *model.RegisterPayload) { p.Level = "" }, "Ugyldig nivå."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := validRegister(sess.ID, "Kari Nordmann")
			tc.mutate(&p)

			_, err := svc.Register(context.Background(), p)
			var vErr *service.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.message, vErr.Message)
		})
	}

	// Validation failures stop the pipeline before the captcha gate and the
	// store: no verification calls, no rows.
	assert.EqualValues(t, 0, verifier.Calls())
	assert.Equal(t, 0, store.RegistrationCount(sess.ID))
}

func TestRegisterHoneypotSilence(t *testing.T) {
	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 20)

	verifier := &testfixtures.StubVerifier{}
	svc := newSignup(store, verifier)

	p := validRegister(sess.ID, "Kari Nordmann")
	p.Website = "https://spam.example"

	_, err := svc.Register(context.Background(), p)
	require.ErrorIs(t, err, service.ErrRejected)

	// The bot never reaches verification or the store.
	assert.EqualValues(t, 0, verifier.Calls())
	assert.Equal(t, 0, store.RegistrationCount(sess.ID))
}

func TestRegisterMissingToken(t *testing.T) {
	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 20)

	verifier := &testfixtures.StubVerifier{}
	svc := newSignup(store, verifier)

	p := validRegister(sess.ID, "Kari Nordmann")
	p.TurnstileToken = ""

	_, err := svc.Register(context.Background(), p)
	require.ErrorIs(t, err, service.ErrMissingCaptcha)
	assert.EqualValues(t, 0, verifier.Calls())
	assert.Equal(t, 0, store.RegistrationCount(sess.ID))
}

func TestRegisterVerificationFailClosed(t *testing.T) {
	for _, verifierErr := range []error{captcha.ErrVerificationFailed, captcha.ErrNotConfigured} {
		store := testfixtures.NewMemStore()
		start, end := testfixtures.FutureWindow(24)
		sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 20)

		svc := newSignup(store, &testfixtures.StubVerifier{Err: verifierErr})

		_, err := svc.Register(context.Background(), validRegister(sess.ID, "Kari Nordmann"))
		require.ErrorIs(t, err, verifierErr)
		assert.Equal(t, 0, store.RegistrationCount(sess.ID), "no row may exist after %v", verifierErr)
	}
}

func TestRegisterSessionNotFound(t *testing.T) {
	store := testfixtures.NewMemStore()
	svc := newSignup(store, &testfixtures.StubVerifier{})

	_, err := svc.Register(context.Background(), validRegister(99, "Kari Nordmann"))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterCapacityInvariantUnderRace(t *testing.T) {
	const capacity = 5
	const attempts = capacity + 3

	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", capacity)

	svc := newSignup(store, &testfixtures.StubVerifier{})

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('A'+i)) + "-deltaker"
			_, err := svc.Register(context.Background(), validRegister(sess.ID, name))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var ok, full int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, repository.ErrSessionFull):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, capacity, ok)
	assert.Equal(t, attempts-capacity, full)
	assert.Equal(t, capacity, store.RegistrationCount(sess.ID))
}

func TestRegisterCapacityOneTwoConcurrent(t *testing.T) {
	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 1)

	svc := newSignup(store, &testfixtures.StubVerifier{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, name := range []string{"Kari Nordmann", "Ola Nordmann"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = svc.Register(context.Background(), validRegister(sess.ID, name))
		}(i, name)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, repository.ErrSessionFull)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, store.RegistrationCount(sess.ID))
}

func TestRegisterReevaluatesCapacityOnResubmit(t *testing.T) {
	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 1)

	svc := newSignup(store, &testfixtures.StubVerifier{})
	admin := service.NewAdminService(store, store.Registrations())

	first, err := svc.Register(context.Background(), validRegister(sess.ID, "Kari Nordmann"))
	require.NoError(t, err)

	// A fresh token does not buy a spot in a full session.
	_, err = svc.Register(context.Background(), validRegister(sess.ID, "Ola Nordmann"))
	require.ErrorIs(t, err, repository.ErrSessionFull)

	// Once the admin frees the spot, the same submission is admitted: the
	// capacity check runs against current state every time.
	require.NoError(t, admin.DeleteRegistration(context.Background(), first.ID))
	_, err = svc.Register(context.Background(), validRegister(sess.ID, "Ola Nordmann"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.RegistrationCount(sess.ID))
}

func TestUpcomingSessionsOrderAndFilter(t *testing.T) {
	store := testfixtures.NewMemStore()

	farStart, farEnd := testfixtures.FutureWindow(72)
	nearStart, nearEnd := testfixtures.FutureWindow(24)
	pastStart, pastEnd := testfixtures.FutureWindow(-24)

	far := store.SeedSession(farStart, farEnd, "Dragvoll Idrettsenter", 20)
	near := store.SeedSession(nearStart, nearEnd, "Dragvoll Idrettsenter", 20)
	store.SeedSession(pastStart, pastEnd, "Dragvoll Idrettsenter", 20)

	svc := newSignup(store, &testfixtures.StubVerifier{})

	sessions, err := svc.UpcomingSessions(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, near.ID, sessions[0].ID)
	assert.Equal(t, far.ID, sessions[1].ID)
}

func TestUpcomingSessionsClampsLimit(t *testing.T) {
	store := testfixtures.NewMemStore()
	for i := 1; i <= 60; i++ {
		start, end := testfixtures.FutureWindow(i)
		store.SeedSession(start, end, "Dragvoll Idrettsenter", 20)
	}

	svc := newSignup(store, &testfixtures.StubVerifier{})

	sessions, err := svc.UpcomingSessions(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, sessions, 12, "non-positive limit falls back to the default")

	sessions, err = svc.UpcomingSessions(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, sessions, 50, "limit is capped")

	sessions, err = svc.UpcomingSessions(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}

func TestSessionRegistrationsOrderedOldestFirst(t *testing.T) {
	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 20)

	svc := newSignup(store, &testfixtures.StubVerifier{})

	for _, name := range []string{"Anne Olsen", "Bjørn Hansen", "Cecilie Berg"} {
		_, err := svc.Register(context.Background(), validRegister(sess.ID, name))
		require.NoError(t, err)
	}

	regs, err := svc.SessionRegistrations(context.Background(), sess.ID)
	require.NoError(t, err)
	require.Len(t, regs, 3)
	assert.Equal(t, "Anne Olsen", regs[0].Name)
	assert.Equal(t, "Cecilie Berg", regs[2].Name)

	_, err = svc.SessionRegistrations(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRequestUnregister(t *testing.T) {
	store := testfixtures.NewMemStore()
	start, end := testfixtures.FutureWindow(24)
	sess := store.SeedSession(start, end, "Dragvoll Idrettsenter", 20)

	verifier := &testfixtures.StubVerifier{}
	svc := newSignup(store, verifier)

	valid := model.UnregisterPayload{
		SessionID:      sess.ID,
		Name:           "Kari Nordmann",
		Message:        "Jeg er blitt syk og kan ikke komme.",
		TurnstileToken: "token",
	}

	require.NoError(t, svc.RequestUnregister(context.Background(), valid))
	assert.Equal(t, 1, store.UnregisterRequestCount())

	t.Run("honeypot persists nothing", func(t *testing.T) {
		p := valid
		p.Website = "bot"
		err := svc.RequestUnregister(context.Background(), p)
		require.ErrorIs(t, err, service.ErrRejected)
		assert.Equal(t, 1, store.UnregisterRequestCount())
	})

	t.Run("short message", func(t *testing.T) {
		p := valid
		p.Message = "nei"
		var vErr *service.ValidationError
		require.ErrorAs(t, svc.RequestUnregister(context.Background(), p), &vErr)
		assert.Equal(t, "Melding må være minst 5 tegn.", vErr.Message)
	})

	t.Run("short name", func(t *testing.T) {
		p := valid
		p.Name = "K"
		var vErr *service.ValidationError
		require.ErrorAs(t, svc.RequestUnregister(context.Background(), p), &vErr)
		assert.Equal(t, "Navn må være minst 2 tegn.", vErr.Message)
	})

	t.Run("missing token", func(t *testing.T) {
		p := valid
		p.TurnstileToken = ""
		require.ErrorIs(t, svc.RequestUnregister(context.Background(), p), service.ErrMissingCaptcha)
	})

	t.Run("unknown session", func(t *testing.T) {
		p := valid
		p.SessionID = 12345
		require.ErrorIs(t, svc.RequestUnregister(context.Background(), p), repository.ErrNotFound)
	})

	t.Run("verification fail closed", func(t *testing.T) {
		failing := newSignup(store, &testfixtures.StubVerifier{Err: captcha.ErrVerificationFailed})
		require.ErrorIs(t, failing.RequestUnregister(context.Background(), valid), captcha.ErrVerificationFailed)
		assert.Equal(t, 1, store.UnregisterRequestCount())
	})
}
