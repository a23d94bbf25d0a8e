package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/moldock/pkg/errors"
)

const vinaOutput = `Performing docking (random seed: -556957284) ...
0%   10   20   30   40   50   60   70   80   90   100%
|----|----|----|----|----|----|----|----|----|----|
***************************************************

mode |   affinity | dist from best mode
     | (kcal/mol) | rmsd l.b.| rmsd u.b.
-----+------------+----------+----------
   1       -7.215          0          0
   2       -6.801      1.922      2.912
   3       -6.512      2.113      3.804
`

func TestParseBestAffinity(t *testing.T) {
	score, ok := parseBestAffinity(vinaOutput)
	require.True(t, ok)
	assert.InDelta(t, -7.215, score, 1e-9)
}

func TestParseBestAffinity_NoTable(t *testing.T) {
	_, ok := parseBestAffinity("WARNING: could not find any conformations\n")
	assert.False(t, ok)
}

func TestParseBestAffinity_EmptyTable(t *testing.T) {
	out := "mode |   affinity\n-----+------------+----------+----------\n"
	_, ok := parseBestAffinity(out)
	assert.False(t, ok)
}

func newStubEngine(run func(ctx context.Context, name string, args ...string) ([]byte, error)) *VinaEngine {
	e := NewVinaEngine(VinaConfig{
		BinaryPath: "/opt/vina-dock",
		TargetsDir: "targets",
		OutputDir:  "work",
		Timeout:    time.Minute,
	}, logging.NewNopLogger())
	e.run = run
	return e
}

// argValue returns the value following flag in a subprocess argument list.
func argValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func TestVinaEngine_Dock(t *testing.T) {
	var gotName string
	var gotArgs []string
	e := newStubEngine(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte(vinaOutput), nil
	})

	res, err := e.Dock(context.Background(), "CCO", "DRD2")
	require.NoError(t, err)
	assert.InDelta(t, -7.215, res.Score, 1e-9)
	assert.True(t, strings.HasPrefix(res.RawLigandPath, "work/DRD2_"), res.RawLigandPath)
	assert.True(t, strings.HasSuffix(res.RawLigandPath, "_docked.pdb"), res.RawLigandPath)

	assert.Equal(t, "/opt/vina-dock", gotName)
	assert.Contains(t, gotArgs, "targets/DRD2_target.pdbqt")
	assert.Contains(t, gotArgs, "CCO")
	assert.Equal(t, res.RawLigandPath, argValue(gotArgs, "--out"))
}

func TestVinaEngine_RawPathUniquePerCall(t *testing.T) {
	e := newStubEngine(func(context.Context, string, ...string) ([]byte, error) {
		return []byte(vinaOutput), nil
	})

	first, err := e.Dock(context.Background(), "CCO", "DRD2")
	require.NoError(t, err)
	second, err := e.Dock(context.Background(), "c1ccccc1", "DRD2")
	require.NoError(t, err)

	assert.NotEqual(t, first.RawLigandPath, second.RawLigandPath,
		"concurrent jobs against one target must not share a raw output path")
}

func TestVinaEngine_MountRootResolvesSubprocessPaths(t *testing.T) {
	var gotArgs []string
	e := NewVinaEngine(VinaConfig{
		BinaryPath: "/opt/vina-dock",
		MountRoot:  "/mnt/moldock",
		TargetsDir: "targets",
		OutputDir:  "work",
		Timeout:    time.Minute,
	}, logging.NewNopLogger())
	e.run = func(_ context.Context, _ string, args ...string) ([]byte, error) {
		gotArgs = args
		return []byte(vinaOutput), nil
	}

	res, err := e.Dock(context.Background(), "CCO", "DRD2")
	require.NoError(t, err)

	assert.Equal(t, "/mnt/moldock/targets/DRD2_target.pdbqt", argValue(gotArgs, "--receptor"))
	assert.True(t, strings.HasPrefix(argValue(gotArgs, "--out"), "/mnt/moldock/work/"))
	// The caller addresses the store, not the mount.
	assert.True(t, strings.HasPrefix(res.RawLigandPath, "work/"), res.RawLigandPath)
}

func TestVinaEngine_NoScoreIsEngineFailure(t *testing.T) {
	e := newStubEngine(func(context.Context, string, ...string) ([]byte, error) {
		return []byte("no conformations found\n"), nil
	})

	_, err := e.Dock(context.Background(), "CCO", "DRD2")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEngineFailure, apperrors.GetCode(err))
}

func TestVinaEngine_DeadlineIsEngineTimeout(t *testing.T) {
	e := newStubEngine(func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	e.cfg.Timeout = 10 * time.Millisecond

	_, err := e.Dock(context.Background(), "CCO", "DRD2")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEngineTimeout, apperrors.GetCode(err))
}

func TestVinaEngine_StartFailureIsUnavailable(t *testing.T) {
	e := newStubEngine(func(context.Context, string, ...string) ([]byte, error) {
		return nil, assert.AnError
	})

	_, err := e.Dock(context.Background(), "CCO", "DRD2")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeEngineUnavailable, apperrors.GetCode(err))
}
