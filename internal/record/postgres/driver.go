// Package postgres provides a PostgreSQL implementation of record.Store
// backed by pgxpool.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/driveoff/internal/config"
	"github.com/koustreak/driveoff/internal/errs"
	"github.com/koustreak/driveoff/internal/record"
)

// Driver is a PostgreSQL implementation of record.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL using the provided settings and returns a
// Driver. It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg config.RecordStore) (*Driver, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime.Std()
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime.Std()
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout.Std()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create pool", err)
	}

	d := &Driver{pool: pool}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return d, nil
}

// --- record.Store implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	d.pool.Close()
}

const selectColumns = `name, doctype, docname, file_name, file_url,
	COALESCE(remote_id, ''), is_private, size, COALESCE(content_hash, ''),
	created_at, modified_at`

func (d *Driver) Get(ctx context.Context, name string) (*record.Attachment, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM attachments WHERE name = $1`, name)

	a, err := scanAttachment(row)
	if err != nil {
		return nil, mapError(err, "failed to get attachment")
	}
	return a, nil
}

func (d *Driver) FindUnmigrated(ctx context.Context) ([]*record.Attachment, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM attachments
		 WHERE remote_id IS NULL OR remote_id = ''
		 ORDER BY created_at`)
	if err != nil {
		return nil, mapError(err, "failed to list unmigrated attachments")
	}
	defer rows.Close()

	var result []*record.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, mapError(err, "failed to scan attachment")
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to iterate attachments")
	}
	return result, nil
}

func (d *Driver) Save(ctx context.Context, a *record.Attachment) error {
	tag, err := d.pool.Exec(ctx,
		`UPDATE attachments
		 SET file_url = $1, remote_id = NULLIF($2, ''), content_hash = $3, modified_at = now()
		 WHERE name = $4`,
		a.FileURL, a.RemoteID, a.ContentHash, a.Name)
	if err != nil {
		return mapError(err, "failed to save attachment")
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.ErrKindNotFound, "attachment "+a.Name+" does not exist")
	}
	return nil
}

func (d *Driver) Delete(ctx context.Context, name string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM attachments WHERE name = $1`, name)
	if err != nil {
		return mapError(err, "failed to delete attachment")
	}
	if tag.RowsAffected() == 0 {
		return errs.New(errs.ErrKindNotFound, "attachment "+name+" does not exist")
	}
	return nil
}

// scanAttachment works for both pgx.Row and pgx.Rows.
func scanAttachment(row pgx.Row) (*record.Attachment, error) {
	var a record.Attachment
	err := row.Scan(&a.Name, &a.Doctype, &a.Docname, &a.FileName, &a.FileURL,
		&a.RemoteID, &a.IsPrivate, &a.Size, &a.ContentHash,
		&a.CreatedAt, &a.ModifiedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
