package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyInBlackout(t *testing.T) {
	p := DefaultPolicy()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.Local)

	assert.True(t, p.InBlackout(day))
	assert.True(t, p.InBlackout(day.Add(59*time.Minute+59*time.Second)))
	assert.False(t, p.InBlackout(day.Add(time.Hour)))
	assert.False(t, p.InBlackout(day.Add(23*time.Hour+59*time.Minute)))
}

func TestPolicyInBlackoutWrapsPastMidnight(t *testing.T) {
	p := Policy{BlackoutStartHour: 23, BlackoutEndHour: 2, WorkCooldown: time.Hour}
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.Local)

	assert.True(t, p.InBlackout(day.Add(23*time.Hour)))
	assert.True(t, p.InBlackout(day.Add(time.Hour)))
	assert.False(t, p.InBlackout(day.Add(2*time.Hour)))

	disabled := Policy{BlackoutStartHour: 3, BlackoutEndHour: 3, WorkCooldown: time.Hour}
	assert.False(t, disabled.InBlackout(day.Add(3*time.Hour)))
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())
	assert.Error(t, Policy{BlackoutStartHour: 24, WorkCooldown: time.Hour}.Validate())
	assert.Error(t, Policy{BlackoutEndHour: 25, WorkCooldown: time.Hour}.Validate())
	assert.Error(t, Policy{}.Validate())
}

func TestCooldownDerivationFromWait(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	wait, ok := ParseCooldownWait("您需要等待3小时 0 分钟 0 秒后即可进行。")
	require.True(t, ok)
	require.Equal(t, 3*time.Hour, wait)

	account := Account{ID: "alice", CredentialValid: true, LastWorkTime: p.LastWorkFromWait(now, wait)}
	assert.Equal(t, now.Add(-3*time.Hour), account.LastWorkTime)
	assert.Equal(t, 3*time.Hour, p.CooldownRemaining(account, now))
	assert.Equal(t, 2*time.Hour+15*time.Minute, p.CooldownRemaining(account, now.Add(45*time.Minute)))
	assert.False(t, p.WorkEligible(account, now))
	assert.True(t, p.WorkEligible(account, now.Add(3*time.Hour)))
}

func TestParseCooldownWait(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Duration
		ok   bool
	}{
		{name: "all units", text: "必须与上一次间隔6小时0分钟0秒才可再次进行,您需要等待5小时59分钟30秒后即可进行。", want: 5*time.Hour + 59*time.Minute + 30*time.Second, ok: true},
		{name: "minutes and seconds", text: "您需要等待12分钟5秒后即可进行。", want: 12*time.Minute + 5*time.Second, ok: true},
		{name: "seconds only", text: "您需要等待9秒后即可进行。", want: 9 * time.Second, ok: true},
		{name: "no wait clause", text: "必须与上一次间隔6小时0分钟0秒才可再次进行", ok: false},
		{name: "login notice", text: "请先登录再进行点击任务", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseCooldownWait(tc.text)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestFormatCountdownRoundsUp(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatCountdown(0))
	assert.Equal(t, "00:00:00", FormatCountdown(-time.Minute))
	assert.Equal(t, "00:00:01", FormatCountdown(200*time.Millisecond))
	assert.Equal(t, "05:59:59", FormatCountdown(6*time.Hour-time.Second))
	assert.Equal(t, "03:00:00", FormatCountdown(3*time.Hour))
}

func TestSignEligibility(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.Local)

	carol := Account{ID: "carol", CredentialValid: true}
	assert.True(t, p.SignEligible(carol, now))

	carol.LastSignDate = DateOf(now)
	assert.False(t, p.SignEligible(carol, now))
	assert.True(t, p.SignEligible(carol, now.Add(24*time.Hour)))

	bob := Account{ID: "bob", CredentialValid: false}
	assert.False(t, p.SignEligible(bob, now))
	assert.False(t, p.WorkEligible(bob, now))

	midnight := time.Date(2026, 10, 20, 0, 30, 0, 0, time.Local)
	assert.False(t, p.SignEligible(Account{ID: "dave", CredentialValid: true}, midnight))
}

func TestParseTaskKind(t *testing.T) {
	kind, err := ParseTaskKind(" Sign ")
	require.NoError(t, err)
	assert.Equal(t, TaskSign, kind)

	_, err = ParseTaskKind("nap")
	assert.ErrorContains(t, err, "unknown task kind")

	assert.Equal(t, "work:alice", Task{Kind: TaskWork, Account: "alice"}.String())
}

func TestCredentialsValidate(t *testing.T) {
	assert.ErrorIs(t, Credentials{}.Validate(), ErrNoCredentials)
	assert.Error(t, Credentials{" ": "x"}.Validate())
	require.NoError(t, Credentials{"auth": "a", "saltkey": "b"}.Validate())
	assert.Equal(t, []string{"auth", "saltkey"}, Credentials{"saltkey": "b", "auth": "a"}.Names())
}
