package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// VinaConfig locates the AutoDock Vina wrapper and its inputs.  The wrapper
// accepts a SMILES string directly and handles ligand preparation itself.
//
// TargetsDir and OutputDir are store-relative; MountRoot is the local
// directory where the store's contents are visible to the subprocess.  For
// the local backend that is the store root itself; for an object-store
// backend it is a FUSE mount of the bucket.
type VinaConfig struct {
	BinaryPath string        `mapstructure:"binary_path"`
	MountRoot  string        `mapstructure:"mount_root"`
	TargetsDir string        `mapstructure:"targets_dir"`
	OutputDir  string        `mapstructure:"output_dir"`
	NumCPUs    int           `mapstructure:"num_cpus"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults fills unset fields.
func (c *VinaConfig) ApplyDefaults() {
	if c.BinaryPath == "" {
		c.BinaryPath = "/usr/local/bin/vina-dock"
	}
	if c.TargetsDir == "" {
		c.TargetsDir = "targets"
	}
	if c.OutputDir == "" {
		c.OutputDir = "work"
	}
	if c.NumCPUs == 0 {
		c.NumCPUs = 4
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Minute
	}
}

// VinaEngine runs the AutoDock Vina wrapper as a subprocess and parses the
// best-mode affinity from its result table.
type VinaEngine struct {
	cfg    VinaConfig
	logger logging.Logger

	// run is swappable in tests.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewVinaEngine builds an engine with cfg (defaults applied).
func NewVinaEngine(cfg VinaConfig, log logging.Logger) *VinaEngine {
	cfg.ApplyDefaults()
	return &VinaEngine{cfg: cfg, logger: log, run: runCommand}
}

// Dock implements Engine.  The raw docked ligand is written by the wrapper
// to a per-call unique path under OutputDir, so concurrent jobs against the
// same target never clobber each other's output; visibility of that write
// is the caller's concern.  The returned RawLigandPath is store-relative,
// while the subprocess arguments carry MountRoot-resolved local paths.
func (e *VinaEngine) Dock(ctx context.Context, smiles, targetName string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	receptor := path.Join(e.cfg.TargetsDir, targetName+"_target.pdbqt")
	rawOut := path.Join(e.cfg.OutputDir, targetName+"_"+uuid.NewString()+"_docked.pdb")

	args := []string{
		"--receptor", e.localPath(receptor),
		"--smiles", smiles,
		"--out", e.localPath(rawOut),
		"--cpu", strconv.Itoa(e.cfg.NumCPUs),
	}

	start := time.Now()
	output, err := e.run(ctx, e.cfg.BinaryPath, args...)
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.Newf(apperrors.ErrCodeEngineTimeout,
				"docking exceeded %s for target %s", e.cfg.Timeout, targetName)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			e.logger.Error("docking run failed",
				logging.String("target", targetName),
				logging.Int("exit_code", exitErr.ExitCode()),
				logging.Duration("elapsed", elapsed))
			return nil, apperrors.Wrap(err, apperrors.ErrCodeEngineFailure,
				fmt.Sprintf("docking exited with code %d", exitErr.ExitCode()))
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEngineUnavailable,
			"could not start docking binary "+e.cfg.BinaryPath)
	}

	score, ok := parseBestAffinity(string(output))
	if !ok {
		return nil, apperrors.New(apperrors.ErrCodeEngineFailure,
			"docking produced no score for target "+targetName)
	}

	e.logger.Info("docking completed",
		logging.String("target", targetName),
		logging.Float64("score", score),
		logging.Duration("elapsed", elapsed))

	return &Result{Score: score, RawLigandPath: rawOut}, nil
}

// localPath resolves a store-relative path to the filesystem location the
// subprocess sees.  With an empty MountRoot the path is left relative to the
// process working directory.
func (e *VinaEngine) localPath(storePath string) string {
	if e.cfg.MountRoot == "" {
		return storePath
	}
	return filepath.Join(e.cfg.MountRoot, filepath.FromSlash(storePath))
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// parseBestAffinity extracts the mode-1 affinity from a Vina result table:
//
//	mode |   affinity | dist from best mode
//	     | (kcal/mol) | rmsd l.b.| rmsd u.b.
//	-----+------------+----------+----------
//	   1       -7.215          0          0
//	   2       -6.801      1.922      2.912
//
// The first data row after the separator carries the best mode.
func parseBestAffinity(output string) (float64, bool) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "-----+") {
			inTable = true
			continue
		}
		if !inTable || line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if mode, err := strconv.Atoi(fields[0]); err != nil || mode != 1 {
			continue
		}
		score, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, false
		}
		return score, true
	}
	return 0, false
}
