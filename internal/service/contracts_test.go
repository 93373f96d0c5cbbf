package service_test

import (
	"github.com/dragvollklubb/paamelding/internal/captcha"
	"github.com/dragvollklubb/paamelding/internal/repository"
	"github.com/dragvollklubb/paamelding/internal/service"
	"github.com/dragvollklubb/paamelding/internal/testfixtures"
)

// Compile-time checks that both the real repositories and the test doubles
// satisfy the service contracts.
var (
	_ service.SessionStore           = (*repository.SessionRepository)(nil)
	_ service.RegistrationStore      = (*repository.RegistrationRepository)(nil)
	_ service.UnregisterRequestStore = (*repository.UnregisterRequestRepository)(nil)
	_ captcha.Verifier               = (*captcha.TurnstileVerifier)(nil)

	_ service.SessionStore           = (*testfixtures.MemStore)(nil)
	_ service.RegistrationStore      = (*testfixtures.MemRegistrations)(nil)
	_ service.UnregisterRequestStore = (*testfixtures.MemUnregisters)(nil)
	_ captcha.Verifier               = (*testfixtures.StubVerifier)(nil)
)
