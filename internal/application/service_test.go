package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(repo *memAccountRepo, settings *memSettingsRepo, store *memSecretStore, now time.Time) *Service {
	return NewService(repo, settings, store, newFakeClock(now), domain.DefaultPolicy(), zap.NewNop())
}

func TestImportCredentialsCreatesAccount(t *testing.T) {
	repo := newMemAccountRepo()
	store := newMemSecretStore()
	svc := newTestService(repo, &memSettingsRepo{}, store, schedulerNow)

	err := svc.ImportCredentials(context.Background(), ImportCredentialsCommand{
		ID:          "alice",
		Credentials: domain.Credentials{"s_gkr8_f20e_auth": "abc", "s_gkr8_f20e_saltkey": "xyz"},
	})
	require.NoError(t, err)

	alice := repo.get("alice")
	assert.Equal(t, "tsdm/accounts/alice/cookies", alice.CredentialRef)
	assert.True(t, alice.CredentialValid)
	assert.JSONEq(t, `{"s_gkr8_f20e_auth":"abc","s_gkr8_f20e_saltkey":"xyz"}`, store.secrets[alice.CredentialRef])
}

func TestImportCredentialsRevalidatesAndKeepsHistory(t *testing.T) {
	lastWork := schedulerNow.Add(-2 * time.Hour)
	repo := newMemAccountRepo(domain.Account{
		ID:            "bob",
		CredentialRef: CredentialRef("bob"),
		LastSignDate:  "2026-10-18",
		LastWorkTime:  lastWork,
	})
	store := newMemSecretStore()
	svc := newTestService(repo, &memSettingsRepo{}, store, schedulerNow)

	require.NoError(t, svc.ImportCredentials(context.Background(), ImportCredentialsCommand{
		ID:          "bob",
		Credentials: domain.Credentials{"auth": "fresh"},
	}))

	bob := repo.get("bob")
	assert.True(t, bob.CredentialValid)
	assert.Equal(t, "2026-10-18", bob.LastSignDate)
	assert.Equal(t, lastWork, bob.LastWorkTime)
}

func TestImportCredentialsRejectsEmptyBlob(t *testing.T) {
	repo := newMemAccountRepo()
	svc := newTestService(repo, &memSettingsRepo{}, newMemSecretStore(), schedulerNow)

	err := svc.ImportCredentials(context.Background(), ImportCredentialsCommand{ID: "alice"})
	assert.ErrorIs(t, err, domain.ErrNoCredentials)

	_, err = repo.GetByID(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestImportCredentialsRollsBackSecretWhenSaveFails(t *testing.T) {
	repo := newMemAccountRepo()
	repo.saveErr = errors.New("read-only filesystem")
	store := newMemSecretStore()
	svc := newTestService(repo, &memSettingsRepo{}, store, schedulerNow)

	err := svc.ImportCredentials(context.Background(), ImportCredentialsCommand{
		ID:          "alice",
		Credentials: domain.Credentials{"auth": "abc"},
	})
	require.ErrorContains(t, err, "read-only filesystem")
	assert.Empty(t, store.secrets)
}

func TestRemoveAccountDeletesCredentials(t *testing.T) {
	store := newMemSecretStore()
	repo := newMemAccountRepo(domain.Account{ID: "alice", CredentialRef: storeCredentials(store, "alice", "tok"), CredentialValid: true})
	svc := newTestService(repo, &memSettingsRepo{}, store, schedulerNow)

	require.NoError(t, svc.RemoveAccount(context.Background(), "alice"))

	_, err := repo.GetByID(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Empty(t, store.secrets)
}

func TestRemoveAccountRestoresAccountWhenSecretDeleteFails(t *testing.T) {
	store := newMemSecretStore()
	alice := domain.Account{ID: "alice", CredentialRef: storeCredentials(store, "alice", "tok"), CredentialValid: true}
	repo := newMemAccountRepo(alice)
	store.delErr = errors.New("pass: gpg agent unavailable")
	svc := newTestService(repo, &memSettingsRepo{}, store, schedulerNow)

	err := svc.RemoveAccount(context.Background(), "alice")
	require.ErrorContains(t, err, "gpg agent unavailable")
	assert.Equal(t, alice, repo.get("alice"))
}

func TestRemoveAccountUnknown(t *testing.T) {
	svc := newTestService(newMemAccountRepo(), &memSettingsRepo{}, newMemSecretStore(), schedulerNow)

	err := svc.RemoveAccount(context.Background(), "mallory")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestSetAutomationPersistsFlag(t *testing.T) {
	settings := &memSettingsRepo{}
	settings.settings.ScheduledTasks = []string{"TSDM_Work_20261019160000"}
	svc := newTestService(newMemAccountRepo(), settings, newMemSecretStore(), schedulerNow)

	require.NoError(t, svc.SetAutomation(context.Background(), true))

	got, err := svc.Settings(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Automation)
	assert.Equal(t, []string{"TSDM_Work_20261019160000"}, got.ScheduledTasks)
}

func TestServiceSnapshotsDeriveFromStore(t *testing.T) {
	lastWork := schedulerNow.Add(-3 * time.Hour)
	repo := newMemAccountRepo(
		domain.Account{ID: "carol", CredentialValid: true, LastSignDate: "2026-10-19", LastWorkTime: lastWork},
		domain.Account{ID: "dave", CredentialValid: false},
	)
	svc := newTestService(repo, &memSettingsRepo{}, newMemSecretStore(), schedulerNow)

	snapshots, err := svc.Snapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshots, 2)

	assert.Equal(t, domain.AccountID("carol"), snapshots[0].Account)
	assert.True(t, snapshots[0].SignedToday)
	assert.Equal(t, 3*time.Hour, snapshots[0].CooldownRemaining)
	assert.Equal(t, "03:00:00", snapshots[0].Countdown)
	require.NotNil(t, snapshots[0].LastWorkTime)
	assert.Equal(t, lastWork, *snapshots[0].LastWorkTime)

	assert.False(t, snapshots[1].CredentialValid)
	assert.False(t, snapshots[1].SignedToday)
	assert.Equal(t, "00:00:00", snapshots[1].Countdown)
	assert.Nil(t, snapshots[1].LastWorkTime)
}
