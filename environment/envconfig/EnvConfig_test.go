package envconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_ParsesFullConfig(t *testing.T) {
	path := writeConfig(t, `
task: PushCube-v1
num_envs: 4
obs_mode: state_dict
reward_mode: sparse
control_mode: pd_joint_vel
backend: batched
seed: 2022
max_episode_steps: 50
sim:
  sim_freq: 120
  control_freq: 30
sensor_overrides:
  base_camera:
    width: 64
    height: 64
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "PushCube-v1", cfg.Task)
	assert.Equal(t, 4, cfg.NumEnvs)
	assert.Equal(t, "state_dict", cfg.ObsMode)
	assert.Equal(t, "sparse", cfg.RewardMode)
	assert.Equal(t, "pd_joint_vel", cfg.ControlMode)
	assert.Equal(t, "batched", cfg.Backend)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(2022), *cfg.Seed)
	assert.Equal(t, 50, cfg.MaxEpisodeSteps)
	assert.Equal(t, 120, cfg.Sim.SimFreq)
	assert.Equal(t, 30, cfg.Sim.ControlFreq)
	assert.Equal(t, 64, cfg.SensorOverrides["base_camera"].Width)
}

func TestLoad_MissingTaskFails(t *testing.T) {
	path := writeConfig(t, "num_envs: 2\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestCreate_BuildsConfiguredEnvironment(t *testing.T) {
	path := writeConfig(t, `
task: PushCube-v1
num_envs: 2
reward_mode: sparse
seed: 2022
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	env, err := cfg.Create(logrus.StandardLogger())
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, 2, env.NumEnvs())
	assert.Equal(t, "sparse", env.RewardModeName())
}

func TestCreate_UnknownTaskFails(t *testing.T) {
	cfg := Config{Task: "Nope-v0"}
	_, err := cfg.Create(logrus.StandardLogger())
	assert.Error(t, err)
}
