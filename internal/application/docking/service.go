// Package docking sequences one docking job from request to served result:
// engine run, artifact persistence, pose selection, complex assembly and
// link derivation.
package docking

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/turtacn/moldock/internal/domain/structure"
	"github.com/turtacn/moldock/internal/domain/structure/convert"
	"github.com/turtacn/moldock/internal/infrastructure/chem"
	"github.com/turtacn/moldock/internal/infrastructure/engine"
	"github.com/turtacn/moldock/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/moldock/internal/infrastructure/storage"
	apperrors "github.com/turtacn/moldock/pkg/errors"
)

// Request is one docking job submission.
type Request struct {
	SMILES     string `json:"smiles"`
	TargetName string `json:"target_name"`
}

// Result is the outcome returned to the caller.  Only the artifacts persist;
// the job itself is never stored.
type Result struct {
	SMILES     string      `json:"smiles"`
	TargetName string      `json:"target_name"`
	MoleculeID string      `json:"molecule_id"`
	Score      float64     `json:"docking_score"`
	Links      ResultLinks `json:"links"`
}

// ResultCache is an optional read-through cache over completed results.
type ResultCache interface {
	GetResult(ctx context.Context, targetName, moleculeID string) (*Result, error)
	SetResult(ctx context.Context, targetName, moleculeID string, res *Result) error
}

// Metrics receives per-job observations.  Implementations must tolerate
// being called from many jobs at once.
type Metrics interface {
	JobStarted(targetName string)
	JobCompleted(targetName string, score float64, elapsed time.Duration)
	JobFailed(targetName string, code apperrors.ErrorCode)
	PoseAtoms(count int)
}

// Config carries the orchestrator's own knobs; collaborator construction
// happens elsewhere.
type Config struct {
	// TargetsDir is the store prefix holding <target>_target.pdbqt files.
	TargetsDir string `mapstructure:"targets_dir"`
	// ViewerBaseURL is the public endpoint result links point at.
	ViewerBaseURL string `mapstructure:"viewer_base_url"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.TargetsDir == "" {
		c.TargetsDir = "targets"
	}
	if c.ViewerBaseURL == "" {
		c.ViewerBaseURL = "http://localhost:8080/api/v1/structures"
	}
}

// Service orchestrates docking jobs.  Each Submit call is independent; the
// only shared state between concurrent jobs is the storage layer, where the
// last writer of an artifact key wins.
type Service struct {
	cfg       Config
	eng       engine.Engine
	identity  chem.IdentityService
	store     storage.Store
	awaiter   *storage.Awaiter
	converter convert.Converter
	links     *LinkBuilder
	cache     ResultCache
	metrics   Metrics
	logger    logging.Logger
}

// NewService wires the orchestrator.  cache and metrics may be nil.
func NewService(
	cfg Config,
	eng engine.Engine,
	identity chem.IdentityService,
	store storage.Store,
	awaiter *storage.Awaiter,
	converter convert.Converter,
	cache ResultCache,
	metrics Metrics,
	log logging.Logger,
) *Service {
	cfg.ApplyDefaults()
	return &Service{
		cfg:       cfg,
		eng:       eng,
		identity:  identity,
		store:     store,
		awaiter:   awaiter,
		converter: converter,
		links:     NewLinkBuilder(cfg.ViewerBaseURL),
		cache:     cache,
		metrics:   metrics,
		logger:    log,
	}
}

// BuildResultLinks re-derives the viewer links for an existing result.
func (s *Service) BuildResultLinks(targetName, moleculeID string) ResultLinks {
	return s.links.BuildResultLinks(targetName, moleculeID)
}

// Submit runs one docking job to completion.  Any step failure aborts the
// job with a typed error; partially written artifacts are left in place for
// operational cleanup.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.JobStarted(req.TargetName)
	}

	res, err := s.submit(ctx, req)
	if err != nil {
		code := apperrors.GetCode(err)
		if s.metrics != nil {
			s.metrics.JobFailed(req.TargetName, code)
		}
		s.logger.Error("docking job failed",
			logging.String("target", req.TargetName),
			logging.String("code", string(code)),
			logging.Duration("elapsed", time.Since(start)),
			logging.Err(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.JobCompleted(req.TargetName, res.Score, time.Since(start))
	}
	s.logger.Info("docking job completed",
		logging.String("target", req.TargetName),
		logging.String("molecule_id", res.MoleculeID),
		logging.Float64("score", res.Score),
		logging.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (s *Service) submit(ctx context.Context, req Request) (*Result, error) {
	smiles, err := chem.NormaliseSMILES(req.SMILES)
	if err != nil {
		return nil, err
	}

	if err := s.checkTarget(ctx, req.TargetName); err != nil {
		return nil, err
	}

	moleculeID, err := s.identity.MoleculeID(smiles)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cached, err := s.cache.GetResult(ctx, req.TargetName, moleculeID); err == nil && cached != nil {
			s.logger.Debug("serving cached result",
				logging.String("target", req.TargetName),
				logging.String("molecule_id", moleculeID))
			return cached, nil
		}
	}

	engineRes, err := s.eng.Dock(ctx, smiles, req.TargetName)
	if err != nil {
		return nil, err
	}

	// The engine's write may not be visible yet.
	rawLigand, err := s.awaiter.Await(ctx, engineRes.RawLigandPath)
	if err != nil {
		return nil, err
	}

	ligandPath := ArtifactPath(req.TargetName, moleculeID, KindLigand)
	if err := s.store.Move(ctx, engineRes.RawLigandPath, ligandPath); err != nil {
		return nil, err
	}

	pose := structure.FirstPose(structure.ParseString(string(rawLigand)).Lines)
	if len(pose) == 0 {
		s.logger.Warn("selected pose has no atoms",
			logging.String("target", req.TargetName),
			logging.String("molecule_id", moleculeID))
	}
	if s.metrics != nil {
		s.metrics.PoseAtoms(len(pose))
	}

	target, err := s.loadTarget(ctx, req.TargetName)
	if err != nil {
		return nil, err
	}

	var complexBuf bytes.Buffer
	stats, err := structure.AssembleComplex(&complexBuf, target, pose)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "assemble complex")
	}
	s.logger.Debug("complex assembled",
		logging.Int("target_atoms", stats.TargetAtoms),
		logging.Int("ligand_atoms", stats.LigandAtoms))

	complexPath := ArtifactPath(req.TargetName, moleculeID, KindComplex)
	if err := s.store.Write(ctx, complexPath, complexBuf.Bytes()); err != nil {
		return nil, err
	}

	res := &Result{
		SMILES:     smiles,
		TargetName: req.TargetName,
		MoleculeID: moleculeID,
		Score:      engineRes.Score,
		Links:      s.links.BuildResultLinks(req.TargetName, moleculeID),
	}

	if s.cache != nil {
		if err := s.cache.SetResult(ctx, req.TargetName, moleculeID, res); err != nil {
			s.logger.Warn("result cache write failed", logging.Err(err))
		}
	}
	return res, nil
}

// checkTarget rejects jobs against targets that were never provisioned,
// before any engine time is spent.
func (s *Service) checkTarget(ctx context.Context, targetName string) error {
	ok, err := s.store.Exists(ctx, s.targetPath(targetName))
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.ErrCodeUnknownTarget, "unknown target "+targetName)
	}
	return nil
}

// loadTarget reads the target's native structure and converts it into plain
// records for the assembler.
func (s *Service) loadTarget(ctx context.Context, targetName string) ([]structure.Line, error) {
	raw, err := s.store.Read(ctx, s.targetPath(targetName))
	if err != nil {
		return nil, err
	}

	var plain bytes.Buffer
	if err := s.converter.Convert(ctx, bytes.NewReader(raw), &plain); err != nil {
		return nil, err
	}

	parsed := structure.ParseString(plain.String())
	for _, m := range parsed.Malformed {
		s.logger.Warn("skipping malformed target record",
			logging.String("target", targetName),
			logging.Int("line", m.LineNumber))
	}
	return parsed.Lines, nil
}

func (s *Service) targetPath(targetName string) string {
	return path.Join(s.cfg.TargetsDir, targetName+"_target.pdbqt")
}
