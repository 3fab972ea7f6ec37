package domain

import "errors"

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrSecretNotFound     = errors.New("secret not found")
	ErrSecretsUnavailable = errors.New("secret backend unavailable")
	ErrNoCredentials      = errors.New("account has no stored credentials")
	ErrCredentialInvalid  = errors.New("credentials rejected by site")
	ErrBlackoutHour       = errors.New("sign is not allowed during the blackout hour")
	ErrSessionUnavailable = errors.New("browser session unavailable")
	ErrSessionBusy        = errors.New("browser session already leased")
	ErrPartialWork        = errors.New("not every work target was consumed")
	ErrCheatDetected      = errors.New("site rejected the work round")
	ErrSchedulerClosed    = errors.New("scheduler is shut down")
)
