package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/tsdm-autosign/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliceKey = "tsdm/accounts/alice/cookies"

type passCall struct {
	input string
	args  []string
}

func recordingStore(stdout, stderr string, err error) (*Store, *[]passCall) {
	calls := &[]passCall{}
	return &Store{
		run: func(_ context.Context, input string, args ...string) (string, string, error) {
			*calls = append(*calls, passCall{input: input, args: args})
			return stdout, stderr, err
		},
	}, calls
}

func TestStorePutInsertsMultilineEntry(t *testing.T) {
	t.Parallel()
	store, calls := recordingStore("", "", nil)

	require.NoError(t, store.Put(context.Background(), aliceKey, `{"auth":"a1"}`))
	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"insert", "--multiline", "--force", aliceKey}, (*calls)[0].args)
	assert.Equal(t, "{\"auth\":\"a1\"}\n", (*calls)[0].input)
}

func TestStoreGetTrimsTrailingNewlines(t *testing.T) {
	t.Parallel()
	store, calls := recordingStore("{\"auth\":\"a1\"}\r\n", "", nil)

	value, err := store.Get(context.Background(), aliceKey)
	require.NoError(t, err)
	assert.Equal(t, `{"auth":"a1"}`, value)
	assert.Equal(t, []string{"show", aliceKey}, (*calls)[0].args)
	assert.Empty(t, (*calls)[0].input)
}

func TestStoreDeleteRemovesEntry(t *testing.T) {
	t.Parallel()
	store, calls := recordingStore("", "", nil)

	require.NoError(t, store.Delete(context.Background(), aliceKey))
	assert.Equal(t, []string{"rm", "--force", aliceKey}, (*calls)[0].args)
}

func TestStoreMapsStderr(t *testing.T) {
	t.Parallel()

	exit := errors.New("exit status 1")
	tests := []struct {
		name   string
		stderr string
		err    error
		target error
		text   string
	}{
		{name: "missing entry", stderr: "Error: " + aliceKey + " is not in the password store.", err: exit, target: domain.ErrSecretNotFound},
		{name: "uninitialised store", stderr: "Error: You must run:\n    pass init your-gpg-id", err: exit, target: domain.ErrSecretsUnavailable},
		{name: "not installed", err: ErrUnavailable, target: domain.ErrSecretsUnavailable},
		{name: "other failure", stderr: "gpg: decryption failed", err: exit, target: exit, text: "gpg: decryption failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := recordingStore("", tt.stderr, tt.err)

			_, err := store.Get(context.Background(), aliceKey)
			require.ErrorIs(t, err, tt.target)
			if tt.text != "" {
				assert.ErrorContains(t, err, tt.text)
				assert.ErrorContains(t, err, "pass get")
			}
		})
	}
}

func TestStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()
	store, calls := recordingStore("", "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, store.Put(ctx, aliceKey, "{}"), context.Canceled)
	assert.Empty(t, *calls)
}
