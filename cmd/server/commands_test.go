package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/phrazzld/transcribe-api/internal/config"
	"github.com/phrazzld/transcribe-api/internal/domain"
	"github.com/phrazzld/transcribe-api/internal/platform/logger"
	"github.com/phrazzld/transcribe-api/internal/platform/migrations"
	"github.com/phrazzld/transcribe-api/internal/platform/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeRoot runs the root command with args and returns its output.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, challengeCount, challengeSeed = "", 1, 0
	t.Setenv("TRANSCRIBE_SERVER_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeChallenges(t *testing.T, output string) []domain.Challenge {
	t.Helper()
	var challenges []domain.Challenge
	scanner := bufio.NewScanner(bytes.NewBufferString(output))
	for scanner.Scan() {
		var c domain.Challenge
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &c), "line: %s", scanner.Text())
		challenges = append(challenges, c)
	}
	require.NoError(t, scanner.Err())
	return challenges
}

func TestWriteChallenges(t *testing.T) {
	studyCfg := config.StudyConfig{BitsBase: 64, BitsMax: 128}

	var first, second bytes.Buffer
	require.NoError(t, writeChallenges(&first, studyCfg, 6, 42))
	require.NoError(t, writeChallenges(&second, studyCfg, 6, 42))
	assert.Equal(t, first.String(), second.String(), "same seed, same challenges")

	challenges := decodeChallenges(t, first.String())
	require.Len(t, challenges, 6)
	for _, c := range challenges {
		assert.True(t, domain.IsValidAlphabet(c.Alphabet), "unknown alphabet %q", c.Alphabet)
		assert.Equal(t, 64, c.Bits)
		assert.NotEmpty(t, c.Expected)
	}
	assert.NotEqual(t, challenges[0].Alphabet, challenges[1].Alphabet, "alphabets rotate")
}

func TestChallengeCommand(t *testing.T) {
	out, err := executeRoot(t, "challenge", "--count", "3", "--seed", "7")
	require.NoError(t, err)
	assert.Len(t, decodeChallenges(t, out), 3)

	_, err = executeRoot(t, "challenge", "--count", "0")
	assert.ErrorContains(t, err, "--count must be at least 1")
}

func TestMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "study.db")
	t.Setenv("TRANSCRIBE_PERSISTENCE_BACKEND", config.BackendSQLite)
	t.Setenv("TRANSCRIBE_PERSISTENCE_PATH", path)

	_, err := executeRoot(t, "migrate", "up")
	require.NoError(t, err)

	ctx := context.Background()
	db, err := sqlite.OpenDB(ctx, path)
	require.NoError(t, err)
	version, err := migrations.CurrentVersion(ctx, db, migrations.DialectSQLite)
	require.NoError(t, err)
	assert.Positive(t, version)
	require.NoError(t, db.Close())

	_, err = executeRoot(t, "migrate", "down")
	require.NoError(t, err)

	_, err = executeRoot(t, "migrate", "sideways")
	assert.Error(t, err)

	_, err = executeRoot(t, "migrate")
	assert.Error(t, err)
}

func TestRunMigrationsFileBackend(t *testing.T) {
	log, _ := logger.NewTestLogger()
	cfg := &config.Config{Persistence: config.PersistenceConfig{
		Backend: config.BackendFile,
		Path:    filepath.Join(t.TempDir(), "study.json"),
	}}
	err := runMigrations(context.Background(), cfg, migrations.CommandUp, log)
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	t.Setenv("TRANSCRIBE_PERSISTENCE_BACKEND", "tape")
	_, err := executeRoot(t, "serve")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
