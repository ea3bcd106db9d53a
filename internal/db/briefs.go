package db

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"briefdesk/internal/models"
)

// briefColumns is the standard column list for brief queries.
const briefColumns = `id, keyword, status, priority, search_intent, monthly_search_volume,
	target_word_count, notes, generation_prompt, task_id, error_message,
	generated_post_id, generated_post_url, featured_image_id,
	draft_at, published_at, created_by, created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// scanBrief scans a row into a Brief struct.
func scanBrief(row pgx.Row) (*models.Brief, error) {
	var b models.Brief
	err := row.Scan(
		&b.ID,
		&b.Keyword,
		&b.Status,
		&b.Priority,
		&b.SearchIntent,
		&b.MonthlySearchVolume,
		&b.TargetWordCount,
		&b.Notes,
		&b.GenerationPrompt,
		&b.TaskID,
		&b.ErrorMessage,
		&b.GeneratedPostID,
		&b.GeneratedPostURL,
		&b.FeaturedImageID,
		&b.DraftAt,
		&b.PublishedAt,
		&b.CreatedBy,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBriefNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// scanBriefs scans multiple rows into a slice of Briefs.
func scanBriefs(rows pgx.Rows) ([]models.Brief, error) {
	defer rows.Close()

	var briefs []models.Brief
	for rows.Next() {
		var b models.Brief
		if err := rows.Scan(
			&b.ID,
			&b.Keyword,
			&b.Status,
			&b.Priority,
			&b.SearchIntent,
			&b.MonthlySearchVolume,
			&b.TargetWordCount,
			&b.Notes,
			&b.GenerationPrompt,
			&b.TaskID,
			&b.ErrorMessage,
			&b.GeneratedPostID,
			&b.GeneratedPostURL,
			&b.FeaturedImageID,
			&b.DraftAt,
			&b.PublishedAt,
			&b.CreatedBy,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		briefs = append(briefs, b)
	}

	return briefs, rows.Err()
}

// CreateBrief inserts a new brief. Status defaults to pending when unset.
func (d *DB) CreateBrief(ctx context.Context, brief *models.Brief) error {
	status := brief.Status
	if status == "" {
		status = models.StatusPending
	}

	query := `
		INSERT INTO briefs (keyword, status, priority, search_intent, monthly_search_volume,
			target_word_count, notes, generation_prompt, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := d.Pool.QueryRow(ctx, query,
		brief.Keyword,
		status,
		brief.Priority,
		brief.SearchIntent,
		brief.MonthlySearchVolume,
		brief.TargetWordCount,
		brief.Notes,
		brief.GenerationPrompt,
		brief.CreatedBy,
	).Scan(&brief.ID, &brief.CreatedAt, &brief.UpdatedAt)
	if err != nil {
		return err
	}

	brief.Status = status
	return nil
}

// GetBriefByID retrieves a brief by its ID.
func (d *DB) GetBriefByID(ctx context.Context, id int64) (*models.Brief, error) {
	query := `SELECT ` + briefColumns + ` FROM briefs WHERE id = $1`
	return scanBrief(d.Pool.QueryRow(ctx, query, id))
}

// BriefFilter narrows ListBriefs results.
type BriefFilter struct {
	Status      models.Status
	Intent      string
	MinPriority int
	Query       string // matches keyword or notes, case-insensitive
	Limit       int
	Offset      int
}

// ListBriefs returns briefs matching the filter, highest priority first.
func (d *DB) ListBriefs(ctx context.Context, filter BriefFilter) ([]models.Brief, error) {
	builder := psql.Select(briefColumns).From("briefs")

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Intent != "" {
		builder = builder.Where(sq.Eq{"search_intent": filter.Intent})
	}
	if filter.MinPriority > 0 {
		builder = builder.Where(sq.GtOrEq{"priority": filter.MinPriority})
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"keyword": pattern},
			sq.ILike{"notes": pattern},
		})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	builder = builder.
		OrderBy("priority DESC", "monthly_search_volume DESC", "created_at ASC").
		Limit(uint64(limit))
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanBriefs(rows)
}

// ApproveBrief moves a brief into approved, clearing any stale error. Guarded
// on the current status so racing approvals degrade to ErrStatusConflict.
func (d *DB) ApproveBrief(ctx context.Context, id int64) error {
	query := `
		UPDATE briefs
		SET status = $1, error_message = '', updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`
	result, err := d.Pool.Exec(ctx, query,
		models.StatusApproved,
		id,
		[]string{string(models.StatusPending), string(models.StatusError), ""},
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return d.conflictOrNotFound(ctx, id)
	}
	return nil
}

// MarkGenerating records an accepted dispatch: status approved -> generating
// with the worker-assigned task id.
func (d *DB) MarkGenerating(ctx context.Context, id int64, taskID string) error {
	query := `
		UPDATE briefs
		SET status = $1, task_id = $2, error_message = '', updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	result, err := d.Pool.Exec(ctx, query, models.StatusGenerating, taskID, id, models.StatusApproved)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return d.conflictOrNotFound(ctx, id)
	}
	return nil
}

// RecordDispatchFailure persists a dispatch failure message while leaving the
// brief approved, so a manual retry stays possible.
func (d *DB) RecordDispatchFailure(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE briefs
		SET error_message = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	result, err := d.Pool.Exec(ctx, query, message, id, models.StatusApproved)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return d.conflictOrNotFound(ctx, id)
	}
	return nil
}

// SetBriefStatus applies a direct admin override. The generating state is
// excluded in SQL as well as in the caller's guard, so a race with an
// accepted dispatch cannot strand a running task. Published briefs get their
// publish timestamp stamped on entry.
func (d *DB) SetBriefStatus(ctx context.Context, id int64, to models.Status) error {
	query := `
		UPDATE briefs
		SET status = $1,
			published_at = CASE WHEN $1 = 'published' AND published_at IS NULL THEN NOW() ELSE published_at END,
			updated_at = NOW()
		WHERE id = $2 AND status != $3
	`
	result, err := d.Pool.Exec(ctx, query, to, id, models.StatusGenerating)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return d.conflictOrNotFound(ctx, id)
	}
	return nil
}

// ApplyCallbackSuccess records a successful generation: draft_ready with the
// produced post reference, clearing any prior error. The task id is kept when
// the callback omits it.
func (d *DB) ApplyCallbackSuccess(ctx context.Context, id int64, taskID string, postID *int64, postURL string, imageID *int64) error {
	query := `
		UPDATE briefs
		SET status = $1,
			task_id = COALESCE(NULLIF($2, ''), task_id),
			generated_post_id = $3,
			generated_post_url = $4,
			featured_image_id = $5,
			error_message = '',
			draft_at = NOW(),
			updated_at = NOW()
		WHERE id = $6
	`
	result, err := d.Pool.Exec(ctx, query, models.StatusDraftReady, taskID, postID, postURL, imageID, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrBriefNotFound
	}
	return nil
}

// ApplyCallbackError records a terminal worker failure verbatim.
func (d *DB) ApplyCallbackError(ctx context.Context, id int64, taskID, message string) error {
	query := `
		UPDATE briefs
		SET status = $1,
			task_id = COALESCE(NULLIF($2, ''), task_id),
			error_message = $3,
			updated_at = NOW()
		WHERE id = $4
	`
	result, err := d.Pool.Exec(ctx, query, models.StatusError, taskID, message, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrBriefNotFound
	}
	return nil
}

// UpdateBriefDetails updates the editable planning fields. Status is not
// touched here; lifecycle transitions have their own guarded paths.
func (d *DB) UpdateBriefDetails(ctx context.Context, brief *models.Brief) error {
	query := `
		UPDATE briefs
		SET generation_prompt = $1, notes = $2, priority = $3,
			target_word_count = $4, search_intent = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`
	err := d.Pool.QueryRow(ctx, query,
		brief.GenerationPrompt,
		brief.Notes,
		brief.Priority,
		brief.TargetWordCount,
		brief.SearchIntent,
		brief.ID,
	).Scan(&brief.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrBriefNotFound
	}
	return err
}

// CountBriefsByStatus returns the per-status brief counts for the dashboard
// and the metrics collector.
func (d *DB) CountBriefsByStatus(ctx context.Context) ([]models.StatusCount, error) {
	rows, err := d.Pool.Query(ctx, `SELECT status, COUNT(*) FROM briefs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []models.StatusCount
	for rows.Next() {
		var c models.StatusCount
		if err := rows.Scan(&c.Status, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// conflictOrNotFound disambiguates a zero-row guarded update.
func (d *DB) conflictOrNotFound(ctx context.Context, id int64) error {
	var exists bool
	if err := d.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM briefs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrBriefNotFound
	}
	return ErrStatusConflict
}
