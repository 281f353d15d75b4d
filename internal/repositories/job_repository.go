package repositories

import (
	"context"
	"errors"
	"time"

	"seiza/internal/httpkit"
	"seiza/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRepository is the Postgres-backed JobStore for the distributed
// topology. State transitions are conditional UPDATEs checked through
// RowsAffected, which gives compare-and-set semantics without explicit
// locking.
type JobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

// EnsureSchema creates the jobs table and its indexes when missing.
func (r *JobRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id            TEXT PRIMARY KEY,
			state         TEXT NOT NULL,
			name          TEXT NOT NULL,
			birthday      TEXT NOT NULL,
			owner_key     TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			started_at    TIMESTAMPTZ,
			finished_at   TIMESTAMPTZ,
			artifact_ref  TEXT,
			error_code    TEXT,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS jobs_state_finished_idx ON jobs (state, finished_at)`,
		`CREATE INDEX IF NOT EXISTS jobs_owner_idx ON jobs (owner_key)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const jobColumns = `id, state, name, birthday, owner_key, created_at, started_at, finished_at, artifact_ref, error_code, error_message`

func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO jobs (id, state, name, birthday, owner_key, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, job.ID, string(job.State), job.Input.Name, job.Input.Birthday, job.OwnerKey, job.CreatedAt)

	if err != nil {
		if httpkit.IsUniqueViolation(err) {
			return ErrStateConflict
		}
		return err
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE id=$1
	`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

func (r *JobRepository) MarkProcessing(ctx context.Context, id string, startedAt time.Time) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE jobs
		SET state=$3, started_at=$2
		WHERE id=$1 AND state=$4
	`, id, startedAt, string(models.StateProcessing), string(models.StateQueued))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.conflictOrMissing(ctx, id)
	}
	return nil
}

func (r *JobRepository) MarkCompleted(ctx context.Context, id string, finishedAt time.Time, artifactRef string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE jobs
		SET state=$3, finished_at=$2, artifact_ref=$4
		WHERE id=$1 AND state=$5
	`, id, finishedAt, string(models.StateCompleted), artifactRef, string(models.StateProcessing))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.conflictOrMissing(ctx, id)
	}
	return nil
}

func (r *JobRepository) MarkFailed(ctx context.Context, id string, finishedAt time.Time, jobErr models.JobError) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE jobs
		SET state=$3, finished_at=$2, error_code=$4, error_message=$5
		WHERE id=$1 AND state=$6
	`, id, finishedAt, string(models.StateFailed), jobErr.Code, jobErr.Message, string(models.StateProcessing))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.conflictOrMissing(ctx, id)
	}
	return nil
}

func (r *JobRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `
		DELETE FROM jobs
		WHERE id=$1
	`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]models.Job, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE state IN ('completed','failed') AND finished_at < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectJobs(rows)
}

func (r *JobRepository) ListTerminalByOwner(ctx context.Context, ownerKey string) ([]models.Job, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE owner_key=$1 AND state IN ('completed','failed')
	`, ownerKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectJobs(rows)
}

// conflictOrMissing resolves a zero-row conditional UPDATE: the job is
// either gone or in a different state.
func (r *JobRepository) conflictOrMissing(ctx context.Context, id string) error {
	var one int
	err := r.db.QueryRow(ctx, `SELECT 1 FROM jobs WHERE id=$1`, id).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrJobNotFound
	}
	if err != nil {
		return err
	}
	return ErrStateConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job      models.Job
		state    string
		artifact *string
		errCode  *string
		errMsg   *string
	)
	err := row.Scan(
		&job.ID,
		&state,
		&job.Input.Name,
		&job.Input.Birthday,
		&job.OwnerKey,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
		&artifact,
		&errCode,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	job.State = models.State(state)
	if artifact != nil {
		job.ArtifactRef = *artifact
	}
	if errCode != nil {
		jobErr := models.JobError{Code: *errCode}
		if errMsg != nil {
			jobErr.Message = *errMsg
		}
		job.Error = &jobErr
	}
	return &job, nil
}

func collectJobs(rows pgx.Rows) ([]models.Job, error) {
	var out []models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, rows.Err()
}
