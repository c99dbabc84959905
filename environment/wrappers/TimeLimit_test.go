package wrappers

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manipgym/manipgym/environment"
	"github.com/manipgym/manipgym/environment/tasks/pushcube"
)

func newTestEnv(t *testing.T, numEnvs int) *environment.Env {
	t.Helper()
	seed := uint64(2022)
	env, err := environment.New(pushcube.New(), environment.Options{
		NumEnvs:    numEnvs,
		RewardMode: "sparse",
		Seed:       &seed,
	})
	require.NoError(t, err)
	t.Cleanup(env.Close)
	return env
}

func TestTimeLimit_TruncatesAfterMaxSteps(t *testing.T) {
	env := newTestEnv(t, 2)
	limited := NewTimeLimit(env, 3)

	for i := 0; i < 2; i++ {
		res, err := limited.Step(nil)
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false}, res.Truncated)
	}

	res, err := limited.Step(nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, res.Truncated)
}

func TestTimeLimit_ResetClearsTheClock(t *testing.T) {
	env := newTestEnv(t, 1)
	limited := NewTimeLimit(env, 2)

	for i := 0; i < 2; i++ {
		_, err := limited.Step(nil)
		require.NoError(t, err)
	}
	_, _, err := limited.Reset(nil, nil)
	require.NoError(t, err)

	res, err := limited.Step(nil)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, res.Truncated)
}

func TestRecordEpisode_WritesResetAndSteps(t *testing.T) {
	env := newTestEnv(t, 1)
	var buf bytes.Buffer
	rec := NewRecordEpisode(env, &buf)

	_, _, err := rec.Reset(nil, nil)
	require.NoError(t, err)
	_, err = rec.Step(nil)
	require.NoError(t, err)
	_, err = rec.Step(nil)
	require.NoError(t, err)

	dec := json.NewDecoder(&buf)
	var records []stepRecord
	for dec.More() {
		var r stepRecord
		require.NoError(t, dec.Decode(&r))
		records = append(records, r)
	}
	require.Len(t, records, 3)

	assert.Equal(t, 0, records[0].Step)
	assert.Equal(t, 1, records[1].Step)
	assert.Equal(t, 2, records[2].Step)
	for _, r := range records {
		assert.Equal(t, records[0].Episode, r.Episode)
		assert.Len(t, r.State, 1)
		assert.Equal(t, env.StateDim(), len(r.State[0]))
	}
}

func TestRecordEpisode_NewEpisodeIdPerReset(t *testing.T) {
	env := newTestEnv(t, 1)
	var buf bytes.Buffer
	rec := NewRecordEpisode(env, &buf)

	_, _, err := rec.Reset(nil, nil)
	require.NoError(t, err)
	first := rec.episode
	_, _, err = rec.Reset(nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, rec.episode)
}
